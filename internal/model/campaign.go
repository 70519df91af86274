// internal/model/campaign.go
package model

import "time"

const (
	CampaignPending   = "pending"
	CampaignCompleted = "completed"
	CampaignFailed    = "failed"
)

// Campaign is one dispatch run. Recipients are fixed when the row is created.
type Campaign struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	TemplateID      *string    `db:"template_id" json:"template_id,omitempty"`
	Name            string     `db:"name" json:"name"`
	Subject         string     `db:"subject" json:"subject"`
	Content         string     `db:"content" json:"content"`
	FromName        string     `db:"from_name" json:"from_name"`
	FromEmail       string     `db:"from_email" json:"from_email"`
	ReplyTo         string     `db:"reply_to" json:"reply_to"`
	Status          string     `db:"status" json:"status"`
	ScheduledFor    *time.Time `db:"scheduled_for" json:"scheduled_for,omitempty"`
	TotalRecipients int        `db:"total_recipients" json:"total_recipients"`
	SentCount       int        `db:"sent_count" json:"sent_count"`
	FailedCount     int        `db:"failed_count" json:"failed_count"`
	RecipientIDs    []string   `db:"recipient_ids" json:"recipient_ids"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// CampaignOutcome is what the status updater writes at the end of a run.
type CampaignOutcome struct {
	Status      string
	SentCount   int
	FailedCount int
	CompletedAt time.Time
}
