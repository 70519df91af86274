package controller_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/unclebandit/outreach-backend/internal/controller"
	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/middleware"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/service"
)

type MockEmailSettingRepo struct {
	mu       sync.Mutex
	settings map[string]*model.EmailSetting
}

func (m *MockEmailSettingRepo) List(ctx context.Context, user string) ([]*model.EmailSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.EmailSetting
	for _, s := range m.settings {
		if s.UserID == user {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockEmailSettingRepo) GetByID(ctx context.Context, user, id string) (*model.EmailSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[id]
	if !ok || s.UserID != user {
		return nil, appErrors.NewNotFound("email setting", id)
	}
	cp := *s
	return &cp, nil
}

func (m *MockEmailSettingRepo) GetDefault(ctx context.Context, user string) (*model.EmailSetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.settings {
		if s.UserID == user && s.IsDefault {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockEmailSettingRepo) Create(ctx context.Context, s *model.EmailSetting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.NewString()
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
	if s.IsDefault {
		m.clearDefault(s.UserID)
	}
	cp := *s
	m.settings[s.ID] = &cp
	return nil
}

func (m *MockEmailSettingRepo) Delete(ctx context.Context, user, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.settings[id]; !ok || s.UserID != user {
		return appErrors.NewNotFound("email setting", id)
	}
	delete(m.settings, id)
	return nil
}

func (m *MockEmailSettingRepo) SetDefault(ctx context.Context, user, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[id]
	if !ok || s.UserID != user {
		return appErrors.NewNotFound("email setting", id)
	}
	m.clearDefault(user)
	s.IsDefault = true
	return nil
}

func (m *MockEmailSettingRepo) clearDefault(user string) {
	for _, s := range m.settings {
		if s.UserID == user {
			s.IsDefault = false
		}
	}
}

func newEmailSettingRouter(t *testing.T) http.Handler {
	t.Helper()

	ctrl := &controller.EmailSettingController{Service: &service.EmailSettingService{
		Repo: &MockEmailSettingRepo{settings: map[string]*model.EmailSetting{}},
	}}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), userID)))
		})
	})
	r.Get("/email-settings", ctrl.List)
	r.Post("/email-settings", ctrl.Create)
	r.Get("/email-settings/default", ctrl.Default)
	r.Put("/email-settings/{id}", ctrl.Update)
	r.Delete("/email-settings/{id}", ctrl.Delete)
	r.Post("/email-settings/{id}/default", ctrl.SetDefault)
	return r
}

func createSetting(t *testing.T, h http.Handler, name string) model.EmailSetting {
	t.Helper()
	w := do(t, h, http.MethodPost, "/email-settings", map[string]any{
		"name":         name,
		"sender_name":  "Hope Trust",
		"sender_email": "hello@hope.example.org",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var s model.EmailSetting
	if err := json.NewDecoder(w.Body).Decode(&s); err != nil {
		t.Fatalf("failed to decode setting: %v", err)
	}
	return s
}

func TestEmailSettingDefaultFlow(t *testing.T) {
	h := newEmailSettingRouter(t)

	if w := do(t, h, http.MethodGet, "/email-settings/default", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 before any setting exists, got %d", w.Code)
	}

	first := createSetting(t, h, "Main")
	second := createSetting(t, h, "Events")
	if !first.IsDefault || second.IsDefault {
		t.Errorf("expected only the first setting to be default, got %v / %v", first.IsDefault, second.IsDefault)
	}

	w := do(t, h, http.MethodPost, "/email-settings/"+second.ID+"/default", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/email-settings/default", nil)
	var def model.EmailSetting
	_ = json.NewDecoder(w.Body).Decode(&def)
	if def.ID != second.ID {
		t.Errorf("expected %s as default, got %s", second.ID, def.ID)
	}

	w = do(t, h, http.MethodGet, "/email-settings", nil)
	var list struct {
		Data []model.EmailSetting `json:"data"`
	}
	_ = json.NewDecoder(w.Body).Decode(&list)
	defaults := 0
	for _, s := range list.Data {
		if s.IsDefault {
			defaults++
		}
	}
	if len(list.Data) != 2 || defaults != 1 {
		t.Errorf("expected 2 settings with one default, got %d / %d", len(list.Data), defaults)
	}

	if w := do(t, h, http.MethodDelete, "/email-settings/"+first.ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
}

func TestEmailSettingValidationOnUpdate(t *testing.T) {
	h := newEmailSettingRouter(t)
	s := createSetting(t, h, "Main")

	w := do(t, h, http.MethodPut, "/email-settings/"+s.ID, map[string]any{
		"name":                 "Main",
		"sender_name":          "Hope Trust",
		"sender_email":         "not-an-email",
		"organization_website": "nope",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	_ = json.NewDecoder(w.Body).Decode(&body)
	if body.Fields["sender_email"] == "" || body.Fields["organization_website"] == "" {
		t.Errorf("expected sender_email and organization_website errors, got %v", body.Fields)
	}

	if w := do(t, h, http.MethodPut, "/email-settings/"+uuid.NewString(), map[string]any{
		"name":         "Other",
		"sender_name":  "Hope Trust",
		"sender_email": "hello@hope.example.org",
	}); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %d", w.Code)
	}
}
