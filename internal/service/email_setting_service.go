package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

type EmailSettingService struct {
	Repo repository.EmailSettingRepositoryInterface
}

type EmailSettingForm struct {
	Name                string `json:"name" validate:"required,max=100"`
	SenderName          string `json:"sender_name" validate:"required"`
	SenderEmail         string `json:"sender_email" validate:"required,email"`
	ReplyToEmail        string `json:"reply_to_email" validate:"omitempty,email"`
	OrganizationName    string `json:"organization_name"`
	OrganizationAddress string `json:"organization_address"`
	OrganizationPhone   string `json:"organization_phone"`
	OrganizationWebsite string `json:"organization_website" validate:"omitempty,url"`
	IsDefault           bool   `json:"is_default"`
}

func (f *EmailSettingForm) apply(s *model.EmailSetting) {
	s.Name = f.Name
	s.SenderName = f.SenderName
	s.SenderEmail = f.SenderEmail
	s.ReplyToEmail = f.ReplyToEmail
	s.OrganizationName = f.OrganizationName
	s.OrganizationAddress = f.OrganizationAddress
	s.OrganizationPhone = f.OrganizationPhone
	s.OrganizationWebsite = f.OrganizationWebsite
	s.IsDefault = f.IsDefault
}

func validateEmailSetting(f *EmailSettingForm) error {
	trimAll(&f.Name, &f.SenderName, &f.SenderEmail, &f.ReplyToEmail,
		&f.OrganizationName, &f.OrganizationAddress, &f.OrganizationPhone, &f.OrganizationWebsite)
	return validateForm(f).OrNil()
}

func (s *EmailSettingService) List(ctx context.Context, userID string) ([]*model.EmailSetting, error) {
	return s.Repo.List(ctx, userID)
}

func (s *EmailSettingService) Get(ctx context.Context, userID, id string) (*model.EmailSetting, error) {
	return s.Repo.GetByID(ctx, userID, id)
}

// Default returns the user's default profile, or a not found error.
func (s *EmailSettingService) Default(ctx context.Context, userID string) (*model.EmailSetting, error) {
	def, err := s.Repo.GetDefault(ctx, userID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, appErrors.NewNotFound("default email setting", userID)
	}
	return def, nil
}

// Create stores a new profile. A user's first profile becomes the default.
func (s *EmailSettingService) Create(ctx context.Context, userID string, form EmailSettingForm) (*model.EmailSetting, error) {
	if err := validateEmailSetting(&form); err != nil {
		return nil, err
	}

	if !form.IsDefault {
		def, err := s.Repo.GetDefault(ctx, userID)
		if err != nil {
			return nil, err
		}
		form.IsDefault = def == nil
	}

	setting := &model.EmailSetting{UserID: userID}
	form.apply(setting)
	if err := s.Repo.Create(ctx, setting); err != nil {
		return nil, fmt.Errorf("failed to create email setting: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"setting_id": setting.ID,
		"is_default": setting.IsDefault,
	}).Info("Email setting created")
	return setting, nil
}

// Update replaces a profile. Clearing is_default on the current default is
// ignored so the user keeps a default.
func (s *EmailSettingService) Update(ctx context.Context, userID, id string, form EmailSettingForm) (*model.EmailSetting, error) {
	if err := validateEmailSetting(&form); err != nil {
		return nil, err
	}

	setting, err := s.Repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	wasDefault := setting.IsDefault
	form.apply(setting)
	setting.IsDefault = setting.IsDefault || wasDefault

	if err := s.Repo.Update(ctx, setting); err != nil {
		return nil, err
	}
	return setting, nil
}

func (s *EmailSettingService) Delete(ctx context.Context, userID, id string) error {
	return s.Repo.Delete(ctx, userID, id)
}

func (s *EmailSettingService) SetDefault(ctx context.Context, userID, id string) (*model.EmailSetting, error) {
	if err := s.Repo.SetDefault(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, userID, id)
}
