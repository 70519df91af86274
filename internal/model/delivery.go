// internal/model/delivery.go
package model

import "time"

const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// Delivery records the outcome of one send within a campaign run.
type Delivery struct {
	ID            string        `db:"id" json:"id"`
	CampaignID    string        `db:"campaign_id" json:"campaign_id"`
	RecipientID   string        `db:"recipient_id" json:"recipient_id"`
	RecipientType RecipientType `db:"recipient_type" json:"recipient_type"`
	Email         string        `db:"email" json:"email"`
	Status        string        `db:"status" json:"status"`
	LastError     string        `db:"last_error" json:"last_error,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}
