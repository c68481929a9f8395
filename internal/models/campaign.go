package models

// CampaignStatus is the lifecycle state of a batch campaign run.
type CampaignStatus string

const (
	CampaignStatusIdle      CampaignStatus = "idle"
	CampaignStatusRunning   CampaignStatus = "running"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusAborted   CampaignStatus = "aborted"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// Terminal reports whether the status is a terminal state.
func (s CampaignStatus) Terminal() bool {
	return s == CampaignStatusCompleted || s == CampaignStatusAborted
}

// CampaignSummary is the outcome of a campaign run.
type CampaignSummary struct {
	// Sent is the number of successful assignment calls.
	Sent int `json:"sent"`

	// Failed is the number of assignment calls that errored.
	Failed int `json:"failed"`

	// Skipped is the number of leads excluded by the safety filter.
	// Computed once up front and never revised.
	Skipped int `json:"skipped"`
}
