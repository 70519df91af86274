// internal/service/template_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// RenderTemplate replaces every {key} in template with data[key].
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

type TemplateService struct {
	TemplateRepo repository.TemplateRepositoryInterface
	Recipients   RecipientSource
	Campaigns    *CampaignService
	Now          func() time.Time
}

type TemplateForm struct {
	Name      string     `json:"name" validate:"required"`
	Type      string     `json:"type" validate:"required,oneof=donor volunteer both"`
	Subject   string     `json:"subject" validate:"required"`
	Content   string     `json:"content" validate:"required"`
	FromName  string     `json:"from_name"`
	FromEmail string     `json:"from_email" validate:"omitempty,email"`
	ReplyTo   string     `json:"reply_to" validate:"omitempty,email"`
	Schedule  *time.Time `json:"schedule"`
}

// ActivateRequest selects who receives an activated template. With no ids
// every recipient matching the template type is addressed.
type ActivateRequest struct {
	RecipientIDs []string `json:"recipient_ids"`
}

type Preview struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

func (s *TemplateService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TemplateService) validateTemplate(form *TemplateForm) error {
	trimAll(&form.Name, &form.Type, &form.Subject, &form.FromName, &form.FromEmail, &form.ReplyTo)

	verr := validateForm(form)
	if strings.TrimSpace(form.Content) == "" {
		verr.Add("content", "is required")
	}
	checkFuture(verr, "schedule", form.Schedule, s.now())
	return verr.OrNil()
}

func (s *TemplateService) Create(ctx context.Context, userID string, form TemplateForm) (*model.Template, error) {
	if err := s.validateTemplate(&form); err != nil {
		return nil, err
	}

	t := &model.Template{
		UserID:    userID,
		Status:    model.TemplateDraft,
		Name:      form.Name,
		Type:      form.Type,
		Subject:   form.Subject,
		Content:   form.Content,
		FromName:  form.FromName,
		FromEmail: form.FromEmail,
		ReplyTo:   form.ReplyTo,
		Schedule:  form.Schedule,
	}
	if err := s.TemplateRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	return t, nil
}

// Update edits the content of a template. Status is left alone.
func (s *TemplateService) Update(ctx context.Context, userID, id string, form TemplateForm) (*model.Template, error) {
	if err := s.validateTemplate(&form); err != nil {
		return nil, err
	}

	t, err := s.TemplateRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	t.Name = form.Name
	t.Type = form.Type
	t.Subject = form.Subject
	t.Content = form.Content
	t.FromName = form.FromName
	t.FromEmail = form.FromEmail
	t.ReplyTo = form.ReplyTo
	t.Schedule = form.Schedule

	if err := s.TemplateRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateService) Get(ctx context.Context, userID, id string) (*model.Template, error) {
	return s.TemplateRepo.GetByID(ctx, userID, id)
}

func (s *TemplateService) List(ctx context.Context, userID string, filter model.TemplateFilter) ([]*model.Template, error) {
	verr := &appErrors.ValidationError{}
	switch filter.Type {
	case "", model.AudienceDonor, model.AudienceVolunteer, model.AudienceBoth:
	default:
		verr.Add("type", "must be one of donor, volunteer, both")
	}
	switch filter.Status {
	case "", model.TemplateDraft, model.TemplateActive, model.TemplatePaused:
	default:
		verr.Add("status", "must be one of draft, active, paused")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return s.TemplateRepo.List(ctx, userID, filter)
}

func (s *TemplateService) Delete(ctx context.Context, userID, id string) error {
	return s.TemplateRepo.Delete(ctx, userID, id)
}

// Activate starts a campaign run from a template. The template is set active
// before any send and stays active whatever the run's outcome.
func (s *TemplateService) Activate(ctx context.Context, userID, id string, req ActivateRequest) (*model.Template, *SendCampaignResult, error) {
	t, err := s.TemplateRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	if t.Status == model.TemplateActive {
		return nil, nil, &appErrors.StatusError{Entity: "template", Status: t.Status, Action: "activated"}
	}

	recipients, err := s.selectRecipients(ctx, userID, t, req)
	if err != nil {
		return nil, nil, err
	}
	if len(recipients) == 0 {
		return nil, nil, appErrors.ErrNoRecipients
	}

	ids := make([]string, len(recipients))
	for i, r := range recipients {
		ids[i] = r.ID
	}
	form := CampaignForm{
		Name:         t.Name,
		Subject:      t.Subject,
		Content:      t.Content,
		FromName:     t.FromName,
		FromEmail:    t.FromEmail,
		ReplyTo:      t.ReplyTo,
		RecipientIDs: ids,
	}
	if t.Schedule != nil && t.Schedule.After(s.now()) {
		form.ScheduledFor = t.Schedule
	}

	c, err := s.Campaigns.buildCampaign(ctx, userID, form)
	if err != nil {
		return nil, nil, err
	}
	c.TemplateID = &t.ID

	if err := s.TemplateRepo.UpdateStatus(ctx, userID, t.ID, model.TemplateActive); err != nil {
		return nil, nil, fmt.Errorf("failed to activate template: %w", err)
	}
	t.Status = model.TemplateActive

	if err := s.Campaigns.CampaignRepo.Create(ctx, c); err != nil {
		return t, nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"template_id": t.ID,
		"campaign_id": c.ID,
		"user_id":     userID,
		"recipients":  len(recipients),
	}).Info("Template activated")

	res, err := s.Campaigns.start(ctx, c, recipients)
	if err != nil {
		return t, nil, err
	}
	return t, res, nil
}

func (s *TemplateService) selectRecipients(ctx context.Context, userID string, t *model.Template, req ActivateRequest) ([]model.Recipient, error) {
	if len(req.RecipientIDs) == 0 {
		return s.Recipients.List(ctx, userID, RecipientFilter{Type: t.Type})
	}
	return s.Recipients.Resolve(ctx, userID, uniqueIDs(req.RecipientIDs))
}

func (s *TemplateService) Pause(ctx context.Context, userID, id string) (*model.Template, error) {
	t, err := s.TemplateRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TemplateActive {
		return nil, &appErrors.StatusError{Entity: "template", Status: t.Status, Action: "paused"}
	}

	if err := s.TemplateRepo.UpdateStatus(ctx, userID, id, model.TemplatePaused); err != nil {
		return nil, err
	}
	t.Status = model.TemplatePaused
	return t, nil
}

// Preview renders the template for a recipient display name.
func (s *TemplateService) Preview(ctx context.Context, userID, id, recipientName string) (*Preview, error) {
	t, err := s.TemplateRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "Friend"
	}
	data := map[string]string{"name": name}
	return &Preview{
		Subject: RenderTemplate(t.Subject, data),
		Content: RenderTemplate(t.Content, data),
	}, nil
}
