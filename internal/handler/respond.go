package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/outreach-backend/internal/assist"
	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to encode response")
	}
}

// WriteError maps err to a status code and JSON body. Unmapped errors are
// reported to Sentry and hidden from the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound   *appErrors.NotFoundError
		validation *appErrors.ValidationError
		status     *appErrors.StatusError
	)

	switch {
	case errors.As(err, &validation):
		WriteJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: validation.Fields})
	case errors.As(err, &notFound):
		WriteJSON(w, http.StatusNotFound, errorBody{Error: notFound.Error()})
	case errors.As(err, &status):
		WriteJSON(w, http.StatusConflict, errorBody{Error: status.Error()})
	case errors.Is(err, appErrors.ErrNoRecipients):
		WriteJSON(w, http.StatusBadRequest, errorBody{
			Error:  appErrors.ErrNoRecipients.Error(),
			Fields: map[string]string{"recipient_ids": "select at least one recipient"},
		})
	case errors.Is(err, appErrors.ErrUnauthorized):
		WriteJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	case errors.Is(err, assist.ErrUnavailable):
		WriteJSON(w, http.StatusBadGateway, errorBody{Error: "content assist is unavailable, please try again"})
	default:
		logrus.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": chimw.GetReqID(r.Context()),
		}).WithError(err).Error("Unhandled error")
		sentry.CaptureException(err)
		WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "something went wrong, please try again"})
	}
}

// DecodeJSON reads the request body into v. An empty body leaves v unchanged.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &appErrors.ValidationError{Fields: map[string]string{"body": "invalid JSON: " + err.Error()}}
	}
	return nil
}
