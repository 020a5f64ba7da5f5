package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Invariant violations and value errors surfaced by the core.
var (
	ErrEmptyLog         = errors.New("change-set log is empty")
	ErrMissingAuthor    = errors.New("change-set author is missing")
	ErrMissingTitle     = errors.New("ticket title is missing")
	ErrInvalidReference = errors.New("reference could not be resolved")
	ErrMalformedValue   = errors.New("malformed value")
)

// ProjectionError reports which invariant refused a ticket projection.
// No partial ticket accompanies it.
type ProjectionError struct {
	TicketID string
	Kind     error
}

func (e *ProjectionError) Error() string {
	if e.TicketID == "" {
		return fmt.Sprintf("project ticket: %v", e.Kind)
	}
	return fmt.Sprintf("project ticket %s: %v", e.TicketID, e.Kind)
}

func (e *ProjectionError) Unwrap() error {
	return e.Kind
}

// ValueError describes a field that failed a format or range check.
type ValueError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValueError) Unwrap() error {
	return ErrMalformedValue
}

func malformed(field, value, reason string) error {
	return &ValueError{Field: field, Value: value, Reason: reason}
}

// ReferenceError lists ids a lookup delegate could not resolve.
type ReferenceError struct {
	Tickets       []string
	Users         []string
	Organizations []string
}

func (e *ReferenceError) Error() string {
	var parts []string
	if len(e.Tickets) > 0 {
		parts = append(parts, "tickets "+strings.Join(e.Tickets, ","))
	}
	if len(e.Users) > 0 {
		parts = append(parts, "users "+strings.Join(e.Users, ","))
	}
	if len(e.Organizations) > 0 {
		parts = append(parts, "organizations "+strings.Join(e.Organizations, ","))
	}
	return fmt.Sprintf("%v: %s", ErrInvalidReference, strings.Join(parts, "; "))
}

func (e *ReferenceError) Unwrap() error {
	return ErrInvalidReference
}
