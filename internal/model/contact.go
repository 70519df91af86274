// internal/model/contact.go
package model

import (
	"strings"
	"time"
)

type RecipientType string

const (
	RecipientDonor       RecipientType = "donor"
	RecipientVolunteer   RecipientType = "volunteer"
	RecipientParticipant RecipientType = "participant"
)

// Valid reports whether t is one of the known recipient types.
func (t RecipientType) Valid() bool {
	switch t {
	case RecipientDonor, RecipientVolunteer, RecipientParticipant:
		return true
	}
	return false
}

// Recipient is the common view of a contact used for messaging. It is built
// at read time and never persisted in this shape.
type Recipient struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Type  RecipientType `json:"type"`
}

// Contact is implemented by Donor and Volunteer.
type Contact interface {
	Recipient() Recipient
}

type Donor struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"user_id"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         string     `db:"last_name" json:"last_name"`
	Email            string     `db:"email" json:"email"`
	Phone            string     `db:"phone" json:"phone"`
	DonorType        string     `db:"donor_type" json:"donor_type"`
	TotalDonated     float64    `db:"total_donated" json:"total_donated"`
	LastDonationDate *time.Time `db:"last_donation_date" json:"last_donation_date,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

func (d Donor) Recipient() Recipient {
	return Recipient{
		ID:    d.ID,
		Name:  displayName(d.FirstName, d.LastName),
		Email: d.Email,
		Type:  RecipientDonor,
	}
}

type Volunteer struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	Skills    string    `db:"skills" json:"skills"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (v Volunteer) Recipient() Recipient {
	return Recipient{
		ID:    v.ID,
		Name:  displayName(v.FirstName, v.LastName),
		Email: v.Email,
		Type:  RecipientVolunteer,
	}
}

func displayName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
