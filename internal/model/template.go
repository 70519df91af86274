// internal/model/template.go
package model

import "time"

const (
	TemplateDraft  = "draft"
	TemplateActive = "active"
	TemplatePaused = "paused"
)

// Template audience types.
const (
	AudienceDonor     = "donor"
	AudienceVolunteer = "volunteer"
	AudienceBoth      = "both"
)

type Template struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Name      string     `db:"name" json:"name"`
	Type      string     `db:"type" json:"type"`
	Subject   string     `db:"subject" json:"subject"`
	Content   string     `db:"content" json:"content"`
	FromName  string     `db:"from_name" json:"from_name"`
	FromEmail string     `db:"from_email" json:"from_email"`
	ReplyTo   string     `db:"reply_to" json:"reply_to"`
	Schedule  *time.Time `db:"schedule" json:"schedule,omitempty"`
	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// TemplateFilter narrows template listings. Empty fields match everything.
type TemplateFilter struct {
	Type   string
	Status string
}
