package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/outreach-backend/internal/model"
)

// DonorRepositoryInterface defines the donor reads the aggregator needs
type DonorRepositoryInterface interface {
	ListByUser(ctx context.Context, userID string) ([]model.Donor, error)
}

// VolunteerRepositoryInterface defines the volunteer reads the aggregator needs
type VolunteerRepositoryInterface interface {
	ListByUser(ctx context.Context, userID string) ([]model.Volunteer, error)
}

type DonorRepository struct {
	DB *sql.DB
}

// ListByUser fetches every donor owned by the user. There is no pagination.
func (r *DonorRepository) ListByUser(ctx context.Context, userID string) ([]model.Donor, error) {
	query := `
        SELECT id, user_id, first_name, last_name, email, phone, donor_type,
               total_donated, last_donation_date, created_at
        FROM donors
        WHERE user_id = $1
        ORDER BY created_at
    `
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donors := []model.Donor{}
	for rows.Next() {
		var d model.Donor
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.FirstName, &d.LastName, &d.Email, &d.Phone, &d.DonorType,
			&d.TotalDonated, &d.LastDonationDate, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		donors = append(donors, d)
	}
	return donors, rows.Err()
}

type VolunteerRepository struct {
	DB *sql.DB
}

// ListByUser fetches every volunteer owned by the user. There is no pagination.
func (r *VolunteerRepository) ListByUser(ctx context.Context, userID string) ([]model.Volunteer, error) {
	query := `
        SELECT id, user_id, first_name, last_name, email, phone, skills, status, created_at
        FROM volunteers
        WHERE user_id = $1
        ORDER BY created_at
    `
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	volunteers := []model.Volunteer{}
	for rows.Next() {
		var v model.Volunteer
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.FirstName, &v.LastName, &v.Email, &v.Phone, &v.Skills, &v.Status, &v.CreatedAt,
		); err != nil {
			return nil, err
		}
		volunteers = append(volunteers, v)
	}
	return volunteers, rows.Err()
}

var (
	_ DonorRepositoryInterface     = (*DonorRepository)(nil)
	_ VolunteerRepositoryInterface = (*VolunteerRepository)(nil)
)
