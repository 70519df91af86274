// internal/service/campaign_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/metrics"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
)

// RecipientSource is satisfied by *RecipientService.
type RecipientSource interface {
	List(ctx context.Context, userID string, filter RecipientFilter) ([]model.Recipient, error)
	Resolve(ctx context.Context, userID string, ids []string) ([]model.Recipient, error)
}

type CampaignService struct {
	CampaignRepo     repository.CampaignRepositoryInterface
	DeliveryRepo     repository.DeliveryRepositoryInterface
	EmailSettingRepo repository.EmailSettingRepositoryInterface
	Recipients       RecipientSource
	Dispatcher       *Dispatcher

	// Async publishes runs on Topic instead of dispatching them inline.
	Queue queue.Queue
	Async bool
	Topic string

	Now func() time.Time
}

// CampaignForm is the authoring form for a direct campaign.
type CampaignForm struct {
	Name         string     `json:"name" validate:"required"`
	Subject      string     `json:"subject" validate:"required"`
	Content      string     `json:"content" validate:"required"`
	FromName     string     `json:"from_name" validate:"required"`
	FromEmail    string     `json:"from_email" validate:"required,email"`
	ReplyTo      string     `json:"reply_to" validate:"omitempty,email"`
	RecipientIDs []string   `json:"recipient_ids" validate:"min=1,dive,required"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

// Result struct for SendCampaign
type SendCampaignResult struct {
	CampaignID      string `json:"campaign_id"`
	Status          string `json:"status"`
	TotalRecipients int    `json:"total_recipients"`
	SentCount       int    `json:"sent_count"`
	FailedCount     int    `json:"failed_count"`
	Queued          bool   `json:"queued"`
}

type CampaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// CreateCampaign validates form and stores a pending campaign. Nothing is
// persisted when validation fails.
func (s *CampaignService) CreateCampaign(ctx context.Context, userID string, form CampaignForm) (*model.Campaign, error) {
	c, err := s.buildCampaign(ctx, userID, form)
	if err != nil {
		return nil, err
	}

	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id": c.ID,
		"user_id":     userID,
		"recipients":  c.TotalRecipients,
	}).Info("Campaign created")
	return c, nil
}

// buildCampaign turns a form into an unsaved pending campaign. Missing sender
// fields are taken from the user's default email setting.
func (s *CampaignService) buildCampaign(ctx context.Context, userID string, form CampaignForm) (*model.Campaign, error) {
	trimAll(&form.Name, &form.Subject, &form.FromName, &form.FromEmail, &form.ReplyTo)
	for i := range form.RecipientIDs {
		trimAll(&form.RecipientIDs[i])
	}

	if err := s.applySenderDefaults(ctx, userID, &form); err != nil {
		return nil, err
	}

	verr := validateForm(&form)
	if strings.TrimSpace(form.Content) == "" {
		verr.Add("content", "is required")
	}
	checkFuture(verr, "scheduled_for", form.ScheduledFor, s.now())
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	ids := uniqueIDs(form.RecipientIDs)
	return &model.Campaign{
		UserID:          userID,
		Name:            form.Name,
		Subject:         form.Subject,
		Content:         form.Content,
		FromName:        form.FromName,
		FromEmail:       form.FromEmail,
		ReplyTo:         form.ReplyTo,
		Status:          model.CampaignPending,
		ScheduledFor:    form.ScheduledFor,
		TotalRecipients: len(ids),
		RecipientIDs:    ids,
	}, nil
}

func (s *CampaignService) applySenderDefaults(ctx context.Context, userID string, form *CampaignForm) error {
	if form.FromName != "" && form.FromEmail != "" && form.ReplyTo != "" {
		return nil
	}
	if s.EmailSettingRepo == nil {
		return nil
	}

	def, err := s.EmailSettingRepo.GetDefault(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load default email setting: %w", err)
	}
	if def == nil {
		return nil
	}

	if form.FromName == "" {
		form.FromName = def.SenderName
	}
	if form.FromEmail == "" {
		form.FromEmail = def.SenderEmail
	}
	if form.ReplyTo == "" {
		form.ReplyTo = def.ReplyToEmail
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, userID string, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	switch status {
	case "", model.CampaignPending, model.CampaignCompleted, model.CampaignFailed:
	default:
		return nil, nil, &appErrors.ValidationError{Fields: map[string]string{
			"status": "must be one of pending, completed, failed",
		}}
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, userID, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, userID, campaignID string) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}

	stats, err := s.CampaignRepo.GetCampaignStats(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign stats: %w", err)
	}
	stats["total"] = campaign.TotalRecipients

	return &CampaignDetails{Campaign: campaign, Stats: stats}, nil
}

// ListDeliveries returns the per-recipient outcomes recorded for a campaign,
// optionally only those of one recipient type.
func (s *CampaignService) ListDeliveries(ctx context.Context, userID, campaignID string, recipientType model.RecipientType) ([]model.Delivery, error) {
	if recipientType != "" && !recipientType.Valid() {
		return nil, &appErrors.ValidationError{Fields: map[string]string{
			"type": "must be one of donor, volunteer, participant",
		}}
	}
	if _, err := s.CampaignRepo.GetByID(ctx, userID, campaignID); err != nil {
		return nil, err
	}

	deliveries, err := s.DeliveryRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if recipientType == "" {
		return deliveries, nil
	}

	filtered := deliveries[:0]
	for _, d := range deliveries {
		if d.RecipientType == recipientType {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, userID, campaignID string) error {
	return s.CampaignRepo.Delete(ctx, userID, campaignID)
}

// SendCampaign starts the run of a pending campaign, inline or through the
// queue. A campaign whose recipients no longer resolve is marked failed.
func (s *CampaignService) SendCampaign(ctx context.Context, userID, campaignID string) (*SendCampaignResult, error) {
	c, recipients, err := s.prepare(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, c, recipients)
}

// RunDispatch executes a pending campaign inline under ctx. Queue consumers
// call it.
func (s *CampaignService) RunDispatch(ctx context.Context, userID, campaignID string) (*SendCampaignResult, error) {
	c, recipients, err := s.prepare(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, c, recipients)
}

func (s *CampaignService) HandleDispatchJob(ctx context.Context, job queue.DispatchJob) error {
	_, err := s.RunDispatch(ctx, job.UserID, job.CampaignID)
	return err
}

func (s *CampaignService) prepare(ctx context.Context, userID, campaignID string) (*model.Campaign, []model.Recipient, error) {
	c, err := s.CampaignRepo.GetByID(ctx, userID, campaignID)
	if err != nil {
		return nil, nil, err
	}
	if c.Status != model.CampaignPending {
		return nil, nil, &appErrors.StatusError{Entity: "campaign", Status: c.Status, Action: "sent"}
	}

	// Deliveries on a pending campaign mean an earlier run stopped part way.
	// Its recipients are not sent to again.
	if s.DeliveryRepo != nil {
		prior, err := s.DeliveryRepo.ListByCampaign(ctx, c.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load deliveries: %w", err)
		}
		if len(prior) > 0 {
			s.closeInterrupted(ctx, c, prior)
			return nil, nil, &appErrors.StatusError{Entity: "campaign", Status: model.CampaignFailed, Action: "sent"}
		}
	}

	recipients, err := s.Recipients.Resolve(ctx, userID, c.RecipientIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		s.markFailed(ctx, c)
		return nil, nil, appErrors.ErrNoRecipients
	}
	return c, recipients, nil
}

// start runs the campaign inline or hands it to the queue. An inline run
// ignores cancellation of ctx and always runs to the end.
func (s *CampaignService) start(ctx context.Context, c *model.Campaign, recipients []model.Recipient) (*SendCampaignResult, error) {
	if !s.Async || s.Queue == nil {
		return s.execute(context.WithoutCancel(ctx), c, recipients)
	}

	topic := s.Topic
	if topic == "" {
		topic = queue.DefaultDispatchTopic
	}
	job := queue.DispatchJob{CampaignID: c.ID, UserID: c.UserID}
	if err := s.Queue.Publish(topic, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue campaign %s: %w", c.ID, err)
	}

	logrus.WithFields(logrus.Fields{"campaign_id": c.ID, "user_id": c.UserID}).Info("Campaign queued")
	return &SendCampaignResult{
		CampaignID:      c.ID,
		Status:          c.Status,
		TotalRecipients: c.TotalRecipients,
		Queued:          true,
	}, nil
}

// execute dispatches the run and writes its outcome. When the dispatch ends
// in a terminal error the campaign row is left as it was.
func (s *CampaignService) execute(ctx context.Context, c *model.Campaign, recipients []model.Recipient) (*SendCampaignResult, error) {
	log := logrus.WithFields(logrus.Fields{"campaign_id": c.ID, "user_id": c.UserID})
	log.WithField("recipients", len(recipients)).Info("Dispatching campaign")

	msg := OutboundMessage{Subject: c.Subject, Content: c.Content}
	res, err := s.Dispatcher.Dispatch(ctx, recipients, msg, func(r SendResult) {
		s.recordDelivery(ctx, c.ID, r)
	})
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"sent":   res.SuccessCount,
			"failed": res.FailureCount,
		}).Error("Dispatch aborted")
		return nil, fmt.Errorf("dispatch of campaign %s aborted: %w", c.ID, err)
	}

	outcome := model.CampaignOutcome{
		Status:      model.CampaignCompleted,
		SentCount:   res.SuccessCount,
		FailedCount: res.FailureCount,
		CompletedAt: s.now(),
	}
	if err := s.CampaignRepo.UpdateOutcome(ctx, c.ID, outcome); err != nil {
		log.WithError(err).Error("Failed to record campaign outcome")
		return nil, fmt.Errorf("failed to update campaign %s: %w", c.ID, err)
	}
	metrics.RecordCampaignRun(model.CampaignCompleted)

	log.WithFields(logrus.Fields{
		"sent":    res.SuccessCount,
		"failed":  res.FailureCount,
		"batches": res.Batches,
	}).Info("Campaign completed")

	return &SendCampaignResult{
		CampaignID:      c.ID,
		Status:          outcome.Status,
		TotalRecipients: c.TotalRecipients,
		SentCount:       outcome.SentCount,
		FailedCount:     outcome.FailedCount,
	}, nil
}

// markFailed records a run that could not start.
func (s *CampaignService) markFailed(ctx context.Context, c *model.Campaign) {
	outcome := model.CampaignOutcome{Status: model.CampaignFailed, CompletedAt: s.now()}
	if err := s.CampaignRepo.UpdateOutcome(ctx, c.ID, outcome); err != nil {
		logrus.WithField("campaign_id", c.ID).WithError(err).Error("Failed to mark campaign failed")
		return
	}
	metrics.RecordCampaignRun(model.CampaignFailed)
	logrus.WithField("campaign_id", c.ID).Warn("Campaign has no deliverable recipients, marked failed")
}

// closeInterrupted marks a partly sent campaign failed with the counts its
// deliveries show.
func (s *CampaignService) closeInterrupted(ctx context.Context, c *model.Campaign, deliveries []model.Delivery) {
	outcome := model.CampaignOutcome{Status: model.CampaignFailed, CompletedAt: s.now()}
	for _, d := range deliveries {
		if d.Status == model.DeliverySent {
			outcome.SentCount++
		} else {
			outcome.FailedCount++
		}
	}

	log := logrus.WithFields(logrus.Fields{
		"campaign_id": c.ID,
		"sent":        outcome.SentCount,
		"failed":      outcome.FailedCount,
	})
	if err := s.CampaignRepo.UpdateOutcome(ctx, c.ID, outcome); err != nil {
		log.WithError(err).Error("Failed to close interrupted campaign")
		return
	}
	metrics.RecordCampaignRun(model.CampaignFailed)
	log.Warn("Campaign was interrupted during an earlier run, marked failed")
}

// recordDelivery stores one send outcome. Failures to store are logged only.
func (s *CampaignService) recordDelivery(ctx context.Context, campaignID string, r SendResult) {
	if s.DeliveryRepo == nil {
		return
	}

	d := &model.Delivery{
		CampaignID:    campaignID,
		RecipientID:   r.Recipient.ID,
		RecipientType: r.Recipient.Type,
		Email:         r.Recipient.Email,
		Status:        model.DeliverySent,
	}
	if r.Err != nil {
		d.Status = model.DeliveryFailed
		d.LastError = r.Err.Error()
	}

	if err := s.DeliveryRepo.Create(ctx, d); err != nil {
		logrus.WithFields(logrus.Fields{
			"campaign_id":  campaignID,
			"recipient_id": r.Recipient.ID,
		}).WithError(err).Warn("Failed to record delivery")
	}
}
