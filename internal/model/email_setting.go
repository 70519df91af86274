// internal/model/email_setting.go
package model

import "time"

// EmailSetting is a named sender identity. At most one per user is the default.
type EmailSetting struct {
	ID                  string    `db:"id" json:"id"`
	UserID              string    `db:"user_id" json:"user_id"`
	Name                string    `db:"name" json:"name"`
	SenderName          string    `db:"sender_name" json:"sender_name"`
	SenderEmail         string    `db:"sender_email" json:"sender_email"`
	ReplyToEmail        string    `db:"reply_to_email" json:"reply_to_email"`
	OrganizationName    string    `db:"organization_name" json:"organization_name"`
	OrganizationAddress string    `db:"organization_address" json:"organization_address"`
	OrganizationPhone   string    `db:"organization_phone" json:"organization_phone"`
	OrganizationWebsite string    `db:"organization_website" json:"organization_website"`
	IsDefault           bool      `db:"is_default" json:"is_default"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}
