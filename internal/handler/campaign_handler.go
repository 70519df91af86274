// internal/handler/campaign_handler.go
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/middleware"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/service"
)

type CampaignReader interface {
	GetCampaignDetailsWithStats(ctx context.Context, userID, campaignID string) (*service.CampaignDetails, error)
	ListDeliveries(ctx context.Context, userID, campaignID string, recipientType model.RecipientType) ([]model.Delivery, error)
}

// CampaignHandler serves the read-only views of a campaign run.
type CampaignHandler struct {
	Service CampaignReader
}

// PathID returns the {id} URL parameter when it is a valid uuid.
func PathID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", &appErrors.ValidationError{Fields: map[string]string{"id": "must be a valid id"}}
	}
	return id.String(), nil
}

func (h *CampaignHandler) GetCampaignHandlerWithStats(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	details, err := h.Service.GetCampaignDetailsWithStats(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, details)
}

func (h *CampaignHandler) ListDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	recipientType := model.RecipientType(r.URL.Query().Get("type"))
	deliveries, err := h.Service.ListDeliveries(r.Context(), middleware.UserIDFromContext(r.Context()), id, recipientType)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"data": deliveries})
}
