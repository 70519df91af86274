package controller

import (
	"net/http"

	"github.com/unclebandit/outreach-backend/internal/handler"
	"github.com/unclebandit/outreach-backend/internal/middleware"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/service"
)

type TemplateController struct {
	TemplateService *service.TemplateService
}

func (c *TemplateController) List(w http.ResponseWriter, r *http.Request) {
	filter := model.TemplateFilter{
		Type:   r.URL.Query().Get("type"),
		Status: r.URL.Query().Get("status"),
	}

	templates, err := c.TemplateService.List(r.Context(), middleware.UserIDFromContext(r.Context()), filter)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": templates})
}

func (c *TemplateController) Create(w http.ResponseWriter, r *http.Request) {
	var form service.TemplateForm
	if err := handler.DecodeJSON(r, &form); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	t, err := c.TemplateService.Create(r.Context(), middleware.UserIDFromContext(r.Context()), form)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, t)
}

func (c *TemplateController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	t, err := c.TemplateService.Get(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, t)
}

func (c *TemplateController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	var form service.TemplateForm
	if err := handler.DecodeJSON(r, &form); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	t, err := c.TemplateService.Update(r.Context(), middleware.UserIDFromContext(r.Context()), id, form)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, t)
}

func (c *TemplateController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	if err := c.TemplateService.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
		handler.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Activate sets the template active and dispatches it.
func (c *TemplateController) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	var req service.ActivateRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	t, run, err := c.TemplateService.Activate(r.Context(), middleware.UserIDFromContext(r.Context()), id, req)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	status := http.StatusOK
	if run.Queued {
		status = http.StatusAccepted
	}
	handler.WriteJSON(w, status, map[string]interface{}{
		"template": t,
		"campaign": run,
	})
}

func (c *TemplateController) Pause(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	t, err := c.TemplateService.Pause(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, t)
}

func (c *TemplateController) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	var body struct {
		RecipientName string `json:"recipient_name"`
	}
	if err := handler.DecodeJSON(r, &body); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	preview, err := c.TemplateService.Preview(r.Context(), middleware.UserIDFromContext(r.Context()), id, body.RecipientName)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, preview)
}
