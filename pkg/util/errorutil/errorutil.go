package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-ledger/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func unprocessable(code string, err error, details map[string]any) *DomainError {
	return &DomainError{
		Code:       code,
		Message:    err.Error(),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
		Err:        err,
	}
}

// ToDomainError converts core and storage errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var details map[string]any
	var projErr *domain.ProjectionError
	if errors.As(err, &projErr) && projErr.TicketID != "" {
		details = map[string]any{"ticket_id": projErr.TicketID}
	}

	switch {
	case errors.Is(err, domain.ErrEmptyLog):
		return unprocessable("EMPTY_LOG", err, details)
	case errors.Is(err, domain.ErrMissingAuthor):
		return unprocessable("MISSING_AUTHOR", err, details)
	case errors.Is(err, domain.ErrMissingTitle):
		return unprocessable("MISSING_TITLE", err, details)
	case errors.Is(err, domain.ErrInvalidReference):
		var refErr *domain.ReferenceError
		if errors.As(err, &refErr) {
			details = map[string]any{
				"tickets":       refErr.Tickets,
				"users":         refErr.Users,
				"organizations": refErr.Organizations,
			}
		}
		return unprocessable("INVALID_REFERENCE", err, details)
	case errors.Is(err, domain.ErrMalformedValue):
		var valErr *domain.ValueError
		if errors.As(err, &valErr) {
			details = map[string]any{"field": valErr.Field, "reason": valErr.Reason}
		}
		return &DomainError{
			Code:       "VALIDATION_FAILED",
			Message:    err.Error(),
			HTTPStatus: http.StatusBadRequest,
			Details:    details,
			Err:        err,
		}
	case errors.Is(err, pgx.ErrNoRows):
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			de.Err = err
			return de
		}
	}

	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
