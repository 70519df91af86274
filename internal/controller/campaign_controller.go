// internal/controller/campaign_controller.go
package controller

import (
	"net/http"
	"strconv"

	"github.com/unclebandit/outreach-backend/internal/handler"
	"github.com/unclebandit/outreach-backend/internal/middleware"
	"github.com/unclebandit/outreach-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var form service.CampaignForm
	if err := handler.DecodeJSON(r, &form); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), middleware.UserIDFromContext(r.Context()), form)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters, the service applies defaults
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), middleware.UserIDFromContext(r.Context()), page, pageSize, status)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination, // page, page_size, total_count, total_pages
	})
}

func (c *CampaignController) SendCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	result, err := c.CampaignService.SendCampaign(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Queued {
		status = http.StatusAccepted
	}
	handler.WriteJSON(w, status, result)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathID(r)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}

	if err := c.CampaignService.DeleteCampaign(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
		handler.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
