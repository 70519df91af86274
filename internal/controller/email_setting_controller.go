package controller

import (
	"net/http"

	"github.com/unclebandit/outreach-backend/internal/handler"
	"github.com/unclebandit/outreach-backend/internal/middleware"
	"github.com/unclebandit/outreach-backend/internal/service"
)

type EmailSettingController struct {
	Service *service.EmailSettingService
}

func (c *EmailSettingController) List(w http.ResponseWriter, r *http.Request) {
	settings, err := c.Service.List(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": settings})
}

func (c *EmailSettingController) Default(w http.ResponseWriter, r *http.Request) {
	setting, err := c.Service.Default(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, setting)
}

func (c *EmailSettingController) Create(w http.ResponseWriter, r *http.Request) {
	var form service.EmailSettingForm
	if err := handler.DecodeJSON(r, &form); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	setting, err := c.Service.Create(r.Context(), middleware.UserIDFromContext(r.Context()), form)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusCreated, setting)
}

func (c *EmailSettingController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	var form service.EmailSettingForm
	if err := handler.DecodeJSON(r, &form); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	setting, err := c.Service.Update(r.Context(), middleware.UserIDFromContext(r.Context()), id, form)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, setting)
}

func (c *EmailSettingController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	if err := c.Service.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
		handler.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *EmailSettingController) SetDefault(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	setting, err := c.Service.SetDefault(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, setting)
}
