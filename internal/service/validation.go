package service

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateForm runs the struct tags of form and returns a *ValidationError
// keyed by JSON field name, or nil.
func validateForm(form any) *appErrors.ValidationError {
	verr := &appErrors.ValidationError{}

	err := validate.Struct(form)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("form", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(fieldName(fe), message(fe))
	}
	return verr
}

// fieldName drops the struct prefix and any slice index from the namespace.
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.Index(ns, "["); i >= 0 {
		ns = ns[:i]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid id"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "select at least one recipient"
		}
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "is invalid"
}

// checkFuture rejects a schedule that is not strictly after now.
func checkFuture(verr *appErrors.ValidationError, field string, at *time.Time, now time.Time) {
	if at != nil && !at.After(now) {
		verr.Add(field, "must be in the future")
	}
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
