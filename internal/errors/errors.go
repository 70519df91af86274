// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNoRecipients is returned before any send when a run has nobody to address.
	ErrNoRecipients = errors.New("at least one recipient is required")
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFoundError is returned when a row does not exist for the calling user.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

func NewNotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func NewCampaignNotFound(id string) error {
	return NewNotFound("campaign", id)
}

func NewTemplateNotFound(id string) error {
	return NewNotFound("template", id)
}

// ValidationError maps form field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message for field unless one is already present.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns e when at least one field failed.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// StatusError reports an action that the row's current status does not allow.
type StatusError struct {
	Entity string
	Status string
	Action string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s cannot be %s in status: %s", e.Entity, e.Action, e.Status)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
