package dto

import (
	"time"

	"github.com/spec-kit/ticket-ledger/internal/domain"
	"github.com/spec-kit/ticket-ledger/internal/wire"
)

// ChangeSetRequest is the body of POST /tickets and POST
// /tickets/:id/change-sets. Author and ticket_id are taken from the
// request context; a missing timestamp is stamped by the service.
type ChangeSetRequest struct {
	wire.ChangeSet
}

// Params decodes the request into change-set fields recorded as author.
// Affected entries are reduced to ids.
func (r ChangeSetRequest) Params(author domain.Reference[domain.User]) (domain.ChangeSetParams, error) {
	record := r.ChangeSet
	userRef := wire.FromUserRef(author)
	record.Author = &userRef
	record.TicketID = ""
	if record.Affected != nil {
		ids := record.Affected.IDsOnly()
		record.Affected = &ids
	}
	stamped := !record.Timestamp.IsZero()
	if !stamped {
		record.Timestamp = time.Unix(0, 0)
	}
	cs, err := record.ToDomain()
	if err != nil {
		return domain.ChangeSetParams{}, err
	}
	p := cs.Params()
	if !stamped {
		p.Timestamp = time.Time{}
	}
	if r.ID == "" {
		p.ID = ""
	}
	return p, nil
}

// LinkAffectedRequest is the body of POST /tickets/:id/affected.
type LinkAffectedRequest struct {
	wire.Affected
}

// Set returns the affected set requested for linking. Clients name
// entities by id only; payloads come from the directories.
func (r LinkAffectedRequest) Set() domain.AffectedSet {
	return r.Affected.IDsOnly().ToDomain()
}

// TicketResponse is the linked-data ticket document.
type TicketResponse = wire.Ticket

// NewTicketResponse projects t for output.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return wire.FromProjection(t.Projection())
}

// TicketSummary is one row of GET /tickets.
type TicketSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	Created        time.Time `json:"created"`
	LastModified   time.Time `json:"last_modified"`
	ChangeSetCount int       `json:"change_set_count"`
}

// NewTicketSummary flattens t, choosing the title in the first matching
// language.
func NewTicketSummary(t *domain.Ticket, languages ...string) TicketSummary {
	return TicketSummary{
		ID:             t.ID(),
		Title:          t.Title().Best(languages...),
		Status:         t.Status().Status.String(),
		Priority:       string(t.Priority()),
		Created:        t.Created(),
		LastModified:   t.LastModified(),
		ChangeSetCount: len(t.ChangeSets()),
	}
}

// NewChangeSetResponses encodes a log for output, keeping its order.
func NewChangeSetResponses(ticketID string, log []domain.ChangeSet) []wire.ChangeSet {
	out := make([]wire.ChangeSet, len(log))
	for i, cs := range log {
		out[i] = wire.FromChangeSet(ticketID, cs)
	}
	return out
}

// HashResponse carries a ticket's integrity digest.
type HashResponse struct {
	TicketID string `json:"ticket_id"`
	Hash     string `json:"hash"`
}

// UnresolvedResponse lists affected ids no directory knew.
type UnresolvedResponse struct {
	Tickets       []string `json:"tickets,omitempty"`
	Users         []string `json:"users,omitempty"`
	Organizations []string `json:"organizations,omitempty"`
}

// AffectedResponse is the expanded affected set of a ticket.
type AffectedResponse struct {
	TicketID   string             `json:"ticket_id"`
	Affected   wire.Affected      `json:"affected"`
	Unresolved UnresolvedResponse `json:"unresolved"`
}

// NewAffectedResponse encodes an expansion result.
func NewAffectedResponse(ticketID string, expanded domain.AffectedSet, unresolved domain.Unresolved) AffectedResponse {
	return AffectedResponse{
		TicketID: ticketID,
		Affected: wire.FromAffected(expanded),
		Unresolved: UnresolvedResponse{
			Tickets:       unresolved.Tickets,
			Users:         unresolved.Users,
			Organizations: unresolved.Organizations,
		},
	}
}
