package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, userID, id string) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, userID string, offset, limit int, status string) ([]*model.Campaign, int, error)
	Delete(ctx context.Context, userID, id string) error

	// Run outcome
	UpdateOutcome(ctx context.Context, id string, outcome model.CampaignOutcome) error
	GetCampaignStats(ctx context.Context, campaignID string) (map[string]int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, user_id, template_id, name, subject, content, from_name, from_email, reply_to,
        status, scheduled_for, total_recipients, sent_count, failed_count, recipient_ids, created_at, completed_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.UserID, &c.TemplateID, &c.Name, &c.Subject, &c.Content, &c.FromName, &c.FromEmail, &c.ReplyTo,
		&c.Status, &c.ScheduledFor, &c.TotalRecipients, &c.SentCount, &c.FailedCount,
		pq.Array(&c.RecipientIDs), &c.CreatedAt, &c.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	if c.Status == "" {
		c.Status = model.CampaignPending
	}
	query := `
        INSERT INTO campaigns
        (id, user_id, template_id, name, subject, content, from_name, from_email, reply_to,
         status, scheduled_for, total_recipients, sent_count, failed_count, recipient_ids, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 0, 0, $13, $14)
    `
	_, err := r.DB.ExecContext(ctx, query,
		c.ID, c.UserID, c.TemplateID, c.Name, c.Subject, c.Content, c.FromName, c.FromEmail, c.ReplyTo,
		c.Status, c.ScheduledFor, c.TotalRecipients, pq.Array(c.RecipientIDs), c.CreatedAt,
	)
	return err
}

func (r *CampaignRepository) GetByID(ctx context.Context, userID, id string) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1 AND user_id=$2`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, userID string, offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	where := ` WHERE user_id=$1`
	args := []interface{}{userID}
	argPos := 2

	if status != "" {
		where += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)

	rows, err := r.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// Count total
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	return expectAffected(res, appErrors.NewCampaignNotFound(id))
}

// ====================== Run outcome ======================

// UpdateOutcome writes the final status and counts of a run. It is the only
// write a run makes to the campaign row.
func (r *CampaignRepository) UpdateOutcome(ctx context.Context, id string, outcome model.CampaignOutcome) error {
	query := `
        UPDATE campaigns
        SET status=$1, sent_count=$2, failed_count=$3, completed_at=$4
        WHERE id=$5
    `
	res, err := r.DB.ExecContext(ctx, query, outcome.Status, outcome.SentCount, outcome.FailedCount, outcome.CompletedAt, id)
	if err != nil {
		return err
	}
	return expectAffected(res, appErrors.NewCampaignNotFound(id))
}

func (r *CampaignRepository) GetCampaignStats(ctx context.Context, campaignID string) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM deliveries WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{model.DeliverySent: 0, model.DeliveryFailed: 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
