package controller

import (
	"net/http"

	"github.com/unclebandit/outreach-backend/internal/assist"
	"github.com/unclebandit/outreach-backend/internal/handler"
)

type AssistController struct {
	Service *assist.Service
}

func (c *AssistController) Generate(w http.ResponseWriter, r *http.Request) {
	var req assist.Request
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.WriteError(w, r, err)
		return
	}

	resp, err := c.Service.Generate(r.Context(), req)
	if err != nil {
		handler.WriteError(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, resp)
}
