// internal/model/campaign.go
package model

import "time"

// Campaign occupies the closed interval [StartDate, EndDate]. Stored campaigns never overlap.
type Campaign struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartDate Date      `db:"start_date" json:"start_date"`
	EndDate   Date      `db:"end_date" json:"end_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Overlaps reports whether the campaign shares at least one day with [start, end].
// Touching endpoints count as an overlap.
func (c *Campaign) Overlaps(start, end Date) bool {
	return !c.EndDate.Before(start) && !c.StartDate.After(end)
}

// CandidateRecord is one loosely-structured row pulled out of an uploaded document.
// Nothing about it is validated yet.
type CandidateRecord struct {
	Name          string `json:"name"`
	StartDateText string `json:"start_date"`
	EndDateText   string `json:"end_date"`
}

// CampaignScheduledEvent is published once a campaign has been stored.
type CampaignScheduledEvent struct {
	CampaignID int64     `json:"campaign_id"`
	Name       string    `json:"name"`
	StartDate  Date      `json:"start_date"`
	EndDate    Date      `json:"end_date"`
	Source     string    `json:"source"` // manual, upload, seed
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	SourceManual = "manual"
	SourceUpload = "upload"
	SourceSeed   = "seed"
)

func NewScheduledEvent(c *Campaign, source string) CampaignScheduledEvent {
	return CampaignScheduledEvent{
		CampaignID: c.ID,
		Name:       c.Name,
		StartDate:  c.StartDate,
		EndDate:    c.EndDate,
		Source:     source,
		OccurredAt: time.Now().UTC(),
	}
}
