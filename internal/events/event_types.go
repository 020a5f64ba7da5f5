package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated          EventType = "ticket_created"
	EventChangeSetAppended      EventType = "change_set_appended"
	EventTicketStatusChanged    EventType = "ticket_status_changed"
	EventFirstResponseRecorded  EventType = "first_response_recorded"
	EventAffectedEntitiesLinked EventType = "affected_entities_linked"
)

// Actor identifies the author of the change-set behind an event.
type Actor struct {
	UserID string `json:"user_id"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	TicketID    string    `json:"ticket_id"`
	ChangeSetID string    `json:"change_set_id"`
	Actor       Actor     `json:"actor"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string `json:"title"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
}

// ChangeSetAppendedPayload payload.
type ChangeSetAppendedPayload struct {
	ChangeSetCount int `json:"change_set_count"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// FirstResponseRecordedPayload payload.
type FirstResponseRecordedPayload struct {
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	ChangeSetID    string `json:"responding_change_set_id"`
}

// AffectedEntitiesLinkedPayload payload.
type AffectedEntitiesLinkedPayload struct {
	Tickets       []string `json:"tickets,omitempty"`
	Users         []string `json:"users,omitempty"`
	Organizations []string `json:"organizations,omitempty"`
}
