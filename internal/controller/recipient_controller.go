package controller

import (
	"net/http"

	"github.com/unclebandit/outreach-backend/internal/handler"
	"github.com/unclebandit/outreach-backend/internal/middleware"
	"github.com/unclebandit/outreach-backend/internal/service"
)

type RecipientController struct {
	Recipients service.RecipientSource
}

func (c *RecipientController) List(w http.ResponseWriter, r *http.Request) {
	filter := service.RecipientFilter{
		Type:   r.URL.Query().Get("type"),
		Search: r.URL.Query().Get("search"),
	}

	recipients, err := c.Recipients.List(r.Context(), middleware.UserIDFromContext(r.Context()), filter)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":  recipients,
		"total": len(recipients),
	})
}
