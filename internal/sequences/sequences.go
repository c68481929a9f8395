// Package sequences provides loading and matching of follow-up sequence
// definitions.
package sequences

import "time"

// TriggerType identifies the event that enrolls a lead into a sequence.
type TriggerType string

const (
	TriggerLeadCapture          TriggerType = "lead-capture"
	TriggerAppointmentScheduled TriggerType = "appointment-scheduled"
	TriggerPropertyViewed       TriggerType = "property-viewed"
	TriggerBuyerLead            TriggerType = "buyer-lead"
	TriggerSellerLead           TriggerType = "seller-lead"
)

// StepType defines the kind of sequence step.
type StepType string

const (
	StepTypeEmail   StepType = "email"
	StepTypeAIEmail StepType = "ai-email"
	StepTypeTask    StepType = "task"
	StepTypeMeeting StepType = "meeting"
	StepTypeSMS     StepType = "sms"
)

// DelayUnit is the unit of a step delay.
type DelayUnit string

const (
	DelayUnitMinutes DelayUnit = "minutes"
	DelayUnitHours   DelayUnit = "hours"
	DelayUnitDays    DelayUnit = "days"
)

// Delay is the wait before a step executes, counted from the previous
// step's execution time.
type Delay struct {
	Value int       `yaml:"value"`
	Unit  DelayUnit `yaml:"unit"`
}

// Duration converts the delay to a time.Duration.
func (d Delay) Duration() time.Duration {
	switch d.Unit {
	case DelayUnitMinutes:
		return time.Duration(d.Value) * time.Minute
	case DelayUnitHours:
		return time.Duration(d.Value) * time.Hour
	case DelayUnitDays:
		return time.Duration(d.Value) * 24 * time.Hour
	default:
		return 0
	}
}

// Step is one action in a sequence plus its delay before execution.
type Step struct {
	Type    StepType `yaml:"type"`
	Delay   Delay    `yaml:"delay"`
	Subject string   `yaml:"subject,omitempty"`
	Body    string   `yaml:"body"`
}

// Definition is an ordered list of timed steps applied to a single lead.
// Definitions are external configuration and read-only to the engine.
type Definition struct {
	ID      string      `yaml:"id"`
	Name    string      `yaml:"name"`
	Trigger TriggerType `yaml:"trigger"`
	Steps   []Step      `yaml:"steps"`
	Active  bool        `yaml:"active"`
	Source  string      // file path or "builtin"
}

// Match returns the active definitions whose trigger matches.
func Match(trigger TriggerType, definitions []*Definition) []*Definition {
	matched := make([]*Definition, 0)
	for _, def := range definitions {
		if def.Active && def.Trigger == trigger {
			matched = append(matched, def)
		}
	}
	return matched
}
