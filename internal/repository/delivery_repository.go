package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/outreach-backend/internal/model"
)

type DeliveryRepositoryInterface interface {
	Create(ctx context.Context, d *model.Delivery) error
	ListByCampaign(ctx context.Context, campaignID string) ([]model.Delivery, error)
}

type DeliveryRepository struct {
	DB *sql.DB
}

// Create inserts one delivery outcome
func (r *DeliveryRepository) Create(ctx context.Context, d *model.Delivery) error {
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO deliveries
        (id, campaign_id, recipient_id, recipient_type, email, status, last_error, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.DB.ExecContext(ctx, query,
		d.ID,
		d.CampaignID,
		d.RecipientID,
		d.RecipientType,
		d.Email,
		d.Status,
		d.LastError,
		d.CreatedAt,
	)
	return err
}

func (r *DeliveryRepository) ListByCampaign(ctx context.Context, campaignID string) ([]model.Delivery, error) {
	query := `
        SELECT id, campaign_id, recipient_id, recipient_type, email, status, last_error, created_at
        FROM deliveries
        WHERE campaign_id=$1
        ORDER BY created_at
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deliveries := []model.Delivery{}
	for rows.Next() {
		var d model.Delivery
		if err := rows.Scan(
			&d.ID,
			&d.CampaignID,
			&d.RecipientID,
			&d.RecipientType,
			&d.Email,
			&d.Status,
			&d.LastError,
			&d.CreatedAt,
		); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

var _ DeliveryRepositoryInterface = (*DeliveryRepository)(nil)
