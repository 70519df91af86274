package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/sender"
)

// --- Mock Sender ---

type MockSender struct {
	mu    sync.Mutex
	sent  []sender.Message
	fail  func(msg sender.Message) error
	calls int
}

func (m *MockSender) Send(ctx context.Context, msg sender.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.sent = append(m.sent, msg)
	if m.fail != nil {
		return m.fail(msg)
	}
	return nil
}

func (m *MockSender) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Mock Campaign Repository ---

type MockCampaignRepo struct {
	mu        sync.Mutex
	campaigns map[string]*model.Campaign
	order     []string
	outcomes  []model.CampaignOutcome
	nextID    int
	stats     map[string]int
	updateErr error
}

func NewMockCampaignRepo() *MockCampaignRepo {
	return &MockCampaignRepo{campaigns: map[string]*model.Campaign{}}
}

func (m *MockCampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = fmt.Sprintf("campaign-%d", m.nextID)
	if c.Status == "" {
		c.Status = model.CampaignPending
	}
	cp := *c
	m.campaigns[c.ID] = &cp
	m.order = append(m.order, c.ID)
	return nil
}

func (m *MockCampaignRepo) GetByID(ctx context.Context, userID, id string) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.UserID != userID {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) ListCampaigns(ctx context.Context, userID string, offset, limit int, status string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var filtered []*model.Campaign
	// newest first
	for i := len(m.order) - 1; i >= 0; i-- {
		c := m.campaigns[m.order[i]]
		if c.UserID != userID || (status != "" && c.Status != status) {
			continue
		}
		filtered = append(filtered, c)
	}
	total := len(filtered)
	if offset >= total {
		return []*model.Campaign{}, total, nil
	}
	end := min(offset+limit, total)
	return filtered[offset:end], total, nil
}

func (m *MockCampaignRepo) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok || c.UserID != userID {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(m.campaigns, id)
	return nil
}

func (m *MockCampaignRepo) UpdateOutcome(ctx context.Context, id string, outcome model.CampaignOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	c, ok := m.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.Status = outcome.Status
	c.SentCount = outcome.SentCount
	c.FailedCount = outcome.FailedCount
	at := outcome.CompletedAt
	c.CompletedAt = &at
	m.outcomes = append(m.outcomes, outcome)
	return nil
}

func (m *MockCampaignRepo) GetCampaignStats(ctx context.Context, campaignID string) (map[string]int, error) {
	stats := map[string]int{model.DeliverySent: 0, model.DeliveryFailed: 0}
	for k, v := range m.stats {
		stats[k] = v
	}
	return stats, nil
}

func (m *MockCampaignRepo) Get(id string) *model.Campaign {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.campaigns[id]
}

func (m *MockCampaignRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.campaigns)
}

// --- Mock Delivery Repository ---

type MockDeliveryRepo struct {
	mu         sync.Mutex
	deliveries []model.Delivery
}

func (m *MockDeliveryRepo) Create(ctx context.Context, d *model.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, *d)
	return nil
}

func (m *MockDeliveryRepo) ListByCampaign(ctx context.Context, campaignID string) ([]model.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Delivery
	for _, d := range m.deliveries {
		if d.CampaignID == campaignID {
			out = append(out, d)
		}
	}
	return out, nil
}

// --- Mock Email Setting Repository ---

type MockEmailSettingRepo struct {
	mu       sync.Mutex
	settings map[string]*model.EmailSetting
	nextID   int
}

func NewMockEmailSettingRepo(settings ...*model.EmailSetting) *MockEmailSettingRepo {
	m := &MockEmailSettingRepo{settings: map[string]*model.EmailSetting{}}
	for _, s := range settings {
		m.settings[s.ID] = s
	}
	return m
}

func (m *MockEmailSettingRepo) List(ctx context.Context, userID string) ([]*model.EmailSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.EmailSetting
	for _, s := range m.settings {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockEmailSettingRepo) GetByID(ctx context.Context, userID, id string) (*model.EmailSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[id]
	if !ok || s.UserID != userID {
		return nil, appErrors.NewNotFound("email setting", id)
	}
	cp := *s
	return &cp, nil
}

func (m *MockEmailSettingRepo) GetDefault(ctx context.Context, userID string) (*model.EmailSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.settings {
		if s.UserID == userID && s.IsDefault {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockEmailSettingRepo) clearDefault(userID string) {
	for _, s := range m.settings {
		if s.UserID == userID {
			s.IsDefault = false
		}
	}
}

func (m *MockEmailSettingRepo) Create(ctx context.Context, s *model.EmailSetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = fmt.Sprintf("setting-%d", m.nextID)
	if s.IsDefault {
		m.clearDefault(s.UserID)
	}
	cp := *s
	m.settings[s.ID] = &cp
	return nil
}

func (m *MockEmailSettingRepo) Update(ctx context.Context, s *model.EmailSetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.settings[s.ID]; !ok {
		return appErrors.NewNotFound("email setting", s.ID)
	}
	if s.IsDefault {
		m.clearDefault(s.UserID)
	}
	cp := *s
	m.settings[s.ID] = &cp
	return nil
}

func (m *MockEmailSettingRepo) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.settings, id)
	return nil
}

func (m *MockEmailSettingRepo) SetDefault(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[id]
	if !ok || s.UserID != userID {
		return appErrors.NewNotFound("email setting", id)
	}
	m.clearDefault(userID)
	s.IsDefault = true
	return nil
}

func (m *MockEmailSettingRepo) defaults(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.settings {
		if s.UserID == userID && s.IsDefault {
			n++
		}
	}
	return n
}

// --- Mock Template Repository ---

type MockTemplateRepo struct {
	mu        sync.Mutex
	templates map[string]*model.Template
	nextID    int
	// statusLog records every UpdateStatus call in order.
	statusLog []string
	onStatus  func(status string)
}

func NewMockTemplateRepo(templates ...*model.Template) *MockTemplateRepo {
	m := &MockTemplateRepo{templates: map[string]*model.Template{}}
	for _, t := range templates {
		m.templates[t.ID] = t
	}
	return m
}

func (m *MockTemplateRepo) Create(ctx context.Context, t *model.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = fmt.Sprintf("template-%d", m.nextID)
	cp := *t
	m.templates[t.ID] = &cp
	return nil
}

func (m *MockTemplateRepo) Update(ctx context.Context, t *model.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return appErrors.NewTemplateNotFound(t.ID)
	}
	cp := *t
	m.templates[t.ID] = &cp
	return nil
}

func (m *MockTemplateRepo) GetByID(ctx context.Context, userID, id string) (*model.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok || t.UserID != userID {
		return nil, appErrors.NewTemplateNotFound(id)
	}
	cp := *t
	return &cp, nil
}

func (m *MockTemplateRepo) List(ctx context.Context, userID string, filter model.TemplateFilter) ([]*model.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Template
	for _, t := range m.templates {
		if t.UserID != userID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockTemplateRepo) UpdateStatus(ctx context.Context, userID, id, status string) error {
	m.mu.Lock()
	t, ok := m.templates[id]
	if !ok || t.UserID != userID {
		m.mu.Unlock()
		return appErrors.NewTemplateNotFound(id)
	}
	t.Status = status
	m.statusLog = append(m.statusLog, status)
	hook := m.onStatus
	m.mu.Unlock()

	if hook != nil {
		hook(status)
	}
	return nil
}

func (m *MockTemplateRepo) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.templates, id)
	return nil
}

func (m *MockTemplateRepo) Status(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.templates[id].Status
}

// --- Mock Contact Repositories ---

type MockDonorRepo struct {
	donors []model.Donor
	err    error
}

func (m *MockDonorRepo) ListByUser(ctx context.Context, userID string) ([]model.Donor, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Donor
	for _, d := range m.donors {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

type MockVolunteerRepo struct {
	volunteers []model.Volunteer
	err        error
}

func (m *MockVolunteerRepo) ListByUser(ctx context.Context, userID string) ([]model.Volunteer, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Volunteer
	for _, v := range m.volunteers {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- Mock Queue ---

type MockQueue struct {
	mu        sync.Mutex
	published []any
	err       error
}

func (m *MockQueue) Publish(topic string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, payload)
	return nil
}

func (m *MockQueue) Subscribe(topic string, handler queue.Handler) error {
	return errors.New("not supported")
}
