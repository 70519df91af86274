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

// uniqueViolation is the postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

type EmailSettingRepositoryInterface interface {
	List(ctx context.Context, userID string) ([]*model.EmailSetting, error)
	GetByID(ctx context.Context, userID, id string) (*model.EmailSetting, error)
	GetDefault(ctx context.Context, userID string) (*model.EmailSetting, error)
	Create(ctx context.Context, s *model.EmailSetting) error
	Update(ctx context.Context, s *model.EmailSetting) error
	Delete(ctx context.Context, userID, id string) error
	SetDefault(ctx context.Context, userID, id string) error
}

type EmailSettingRepository struct {
	DB *sql.DB
}

const emailSettingColumns = `id, user_id, name, sender_name, sender_email, reply_to_email,
        organization_name, organization_address, organization_phone, organization_website,
        is_default, created_at, updated_at`

func scanEmailSetting(row interface{ Scan(...any) error }) (*model.EmailSetting, error) {
	var s model.EmailSetting
	err := row.Scan(
		&s.ID, &s.UserID, &s.Name, &s.SenderName, &s.SenderEmail, &s.ReplyToEmail,
		&s.OrganizationName, &s.OrganizationAddress, &s.OrganizationPhone, &s.OrganizationWebsite,
		&s.IsDefault, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *EmailSettingRepository) List(ctx context.Context, userID string) ([]*model.EmailSetting, error) {
	query := `SELECT ` + emailSettingColumns + ` FROM email_settings WHERE user_id=$1 ORDER BY is_default DESC, name`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := []*model.EmailSetting{}
	for rows.Next() {
		s, err := scanEmailSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (r *EmailSettingRepository) GetByID(ctx context.Context, userID, id string) (*model.EmailSetting, error) {
	query := `SELECT ` + emailSettingColumns + ` FROM email_settings WHERE id=$1 AND user_id=$2`
	s, err := scanEmailSetting(r.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("email setting", id)
		}
		return nil, err
	}
	return s, nil
}

// GetDefault returns nil, nil when the user has no default profile.
func (r *EmailSettingRepository) GetDefault(ctx context.Context, userID string) (*model.EmailSetting, error) {
	query := `SELECT ` + emailSettingColumns + ` FROM email_settings WHERE user_id=$1 AND is_default LIMIT 1`
	s, err := scanEmailSetting(r.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *EmailSettingRepository) Create(ctx context.Context, s *model.EmailSetting) error {
	now := time.Now().UTC()
	s.ID = uuid.NewString()
	s.CreatedAt = now
	s.UpdatedAt = now

	return r.inTx(ctx, func(tx *sql.Tx) error {
		if s.IsDefault {
			if err := clearDefault(ctx, tx, s.UserID); err != nil {
				return err
			}
		}
		query := `
            INSERT INTO email_settings
            (id, user_id, name, sender_name, sender_email, reply_to_email,
             organization_name, organization_address, organization_phone, organization_website,
             is_default, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        `
		_, err := tx.ExecContext(ctx, query,
			s.ID, s.UserID, s.Name, s.SenderName, s.SenderEmail, s.ReplyToEmail,
			s.OrganizationName, s.OrganizationAddress, s.OrganizationPhone, s.OrganizationWebsite,
			s.IsDefault, s.CreatedAt, s.UpdatedAt,
		)
		return nameTaken(err)
	})
}

func (r *EmailSettingRepository) Update(ctx context.Context, s *model.EmailSetting) error {
	s.UpdatedAt = time.Now().UTC()

	return r.inTx(ctx, func(tx *sql.Tx) error {
		if s.IsDefault {
			if err := clearDefault(ctx, tx, s.UserID); err != nil {
				return err
			}
		}
		query := `
            UPDATE email_settings
            SET name=$1, sender_name=$2, sender_email=$3, reply_to_email=$4,
                organization_name=$5, organization_address=$6, organization_phone=$7, organization_website=$8,
                is_default=$9, updated_at=$10
            WHERE id=$11 AND user_id=$12
        `
		res, err := tx.ExecContext(ctx, query,
			s.Name, s.SenderName, s.SenderEmail, s.ReplyToEmail,
			s.OrganizationName, s.OrganizationAddress, s.OrganizationPhone, s.OrganizationWebsite,
			s.IsDefault, s.UpdatedAt, s.ID, s.UserID,
		)
		if err != nil {
			return nameTaken(err)
		}
		return expectAffected(res, appErrors.NewNotFound("email setting", s.ID))
	})
}

func (r *EmailSettingRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM email_settings WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	return expectAffected(res, appErrors.NewNotFound("email setting", id))
}

// SetDefault clears every other default of the user and flags id, atomically.
func (r *EmailSettingRepository) SetDefault(ctx context.Context, userID, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := clearDefault(ctx, tx, userID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE email_settings SET is_default=TRUE, updated_at=$1 WHERE id=$2 AND user_id=$3`,
			time.Now().UTC(), id, userID,
		)
		if err != nil {
			return err
		}
		return expectAffected(res, appErrors.NewNotFound("email setting", id))
	})
}

func clearDefault(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE email_settings SET is_default=FALSE WHERE user_id=$1 AND is_default`, userID)
	return err
}

func (r *EmailSettingRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nameTaken(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return &appErrors.ValidationError{Fields: map[string]string{"name": "an email setting with this name already exists"}}
	}
	return err
}

var _ EmailSettingRepositoryInterface = (*EmailSettingRepository)(nil)
