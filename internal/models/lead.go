// Package models defines the core data types for the outreach engine.
package models

import "strings"

// LeadStatus describes where a lead sits in the pipeline.
type LeadStatus string

const (
	LeadStatusNew          LeadStatus = "new"
	LeadStatusContacted    LeadStatus = "contacted"
	LeadStatusQualified    LeadStatus = "qualified"
	LeadStatusShowing      LeadStatus = "showing"
	LeadStatusLost         LeadStatus = "lost"
	LeadStatusBounced      LeadStatus = "bounced"
	LeadStatusUnsubscribed LeadStatus = "unsubscribed"
)

// Lead is the read model for a captured lead.
type Lead struct {
	// ID is the unique identifier for the lead.
	ID string `json:"id"`

	// Name is the lead's full name.
	Name string `json:"name"`

	// Email is the lead's email address.
	Email string `json:"email"`

	// Phone is the lead's phone number.
	Phone string `json:"phone,omitempty"`

	// Status is the lead's pipeline status.
	Status LeadStatus `json:"status"`
}

// Validate checks that the lead carries the fields the engine depends on.
func (l *Lead) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(l.ID) == "" {
		validation.AddMessage("id", "lead id is required")
	}
	if strings.TrimSpace(l.Email) == "" {
		validation.AddMessage("email", "lead email is required")
	}
	return validation.Err()
}

// Property is the read model for a listed property.
type Property struct {
	// ID is the unique identifier for the property.
	ID string `json:"id"`

	// Address is the full street address.
	Address string `json:"address"`

	// Price is the listing price in whole dollars.
	Price int64 `json:"price"`

	// Bedrooms is the bedroom count.
	Bedrooms int `json:"bedrooms"`

	// Bathrooms is the bathroom count (half baths allowed).
	Bathrooms float64 `json:"bathrooms"`

	// SquareFeet is the interior size.
	SquareFeet int64 `json:"square_feet"`

	// Type is the property type (condo, single-family, ...).
	Type string `json:"type"`

	// Features lists notable property features.
	Features []string `json:"features,omitempty"`
}

// AgentProfile is the read model for the operating agent.
type AgentProfile struct {
	// ID is the unique identifier for the agent.
	ID string `json:"id"`

	// Name is the agent's full name.
	Name string `json:"name"`

	// Title is the agent's professional title.
	Title string `json:"title,omitempty"`

	// Company is the brokerage name.
	Company string `json:"company,omitempty"`

	// Phone is the agent's phone number.
	Phone string `json:"phone,omitempty"`

	// Email is the agent's email address.
	Email string `json:"email,omitempty"`
}

// SequenceContext is the snapshot of read models a sequence instance is
// resolved against. It is captured once when the instance starts.
type SequenceContext struct {
	Lead     Lead              `json:"lead"`
	Property *Property         `json:"property,omitempty"`
	Agent    AgentProfile      `json:"agent"`
	Custom   map[string]string `json:"custom,omitempty"`
}
