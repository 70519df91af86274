package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(ctx context.Context, t *model.Template) error
	Update(ctx context.Context, t *model.Template) error
	GetByID(ctx context.Context, userID, id string) (*model.Template, error)
	List(ctx context.Context, userID string, filter model.TemplateFilter) ([]*model.Template, error)
	UpdateStatus(ctx context.Context, userID, id, status string) error
	Delete(ctx context.Context, userID, id string) error
}

type TemplateRepository struct {
	DB *sql.DB
}

const templateColumns = `id, user_id, name, type, subject, content, from_name, from_email, reply_to,
        schedule, status, created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (*model.Template, error) {
	var t model.Template
	err := row.Scan(
		&t.ID, &t.UserID, &t.Name, &t.Type, &t.Subject, &t.Content, &t.FromName, &t.FromEmail, &t.ReplyTo,
		&t.Schedule, &t.Status, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) Create(ctx context.Context, t *model.Template) error {
	now := time.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = model.TemplateDraft
	}

	query := `
        INSERT INTO outreach_templates
        (id, user_id, name, type, subject, content, from_name, from_email, reply_to, schedule, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `
	_, err := r.DB.ExecContext(ctx, query,
		t.ID, t.UserID, t.Name, t.Type, t.Subject, t.Content, t.FromName, t.FromEmail, t.ReplyTo,
		t.Schedule, t.Status, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (r *TemplateRepository) Update(ctx context.Context, t *model.Template) error {
	t.UpdatedAt = time.Now().UTC()
	query := `
        UPDATE outreach_templates
        SET name=$1, type=$2, subject=$3, content=$4, from_name=$5, from_email=$6, reply_to=$7,
            schedule=$8, updated_at=$9
        WHERE id=$10 AND user_id=$11
    `
	res, err := r.DB.ExecContext(ctx, query,
		t.Name, t.Type, t.Subject, t.Content, t.FromName, t.FromEmail, t.ReplyTo,
		t.Schedule, t.UpdatedAt, t.ID, t.UserID,
	)
	if err != nil {
		return err
	}
	return expectAffected(res, appErrors.NewTemplateNotFound(t.ID))
}

func (r *TemplateRepository) GetByID(ctx context.Context, userID, id string) (*model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM outreach_templates WHERE id=$1 AND user_id=$2`
	t, err := scanTemplate(r.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewTemplateNotFound(id)
		}
		return nil, err
	}
	return t, nil
}

func (r *TemplateRepository) List(ctx context.Context, userID string, filter model.TemplateFilter) ([]*model.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM outreach_templates WHERE user_id=$1`
	args := []interface{}{userID}
	argPos := 2

	if filter.Type != "" {
		query += fmt.Sprintf(" AND type=$%d", argPos)
		args = append(args, filter.Type)
		argPos++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, filter.Status)
	}
	query += " ORDER BY updated_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*model.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *TemplateRepository) UpdateStatus(ctx context.Context, userID, id, status string) error {
	query := `UPDATE outreach_templates SET status=$1, updated_at=$2 WHERE id=$3 AND user_id=$4`
	res, err := r.DB.ExecContext(ctx, query, status, time.Now().UTC(), id, userID)
	if err != nil {
		return err
	}
	return expectAffected(res, appErrors.NewTemplateNotFound(id))
}

func (r *TemplateRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM outreach_templates WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	return expectAffected(res, appErrors.NewTemplateNotFound(id))
}

// expectAffected returns notFound when the statement touched no rows.
func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
