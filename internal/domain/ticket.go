package domain

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ticket is an immutable snapshot projected from a non-empty change-set
// log. Safe for concurrent reads.
type Ticket struct {
	id         string
	changeSets []ChangeSet
	view       Projection
}

// NewTicket projects changeSets, in any order, into a ticket. An empty id
// is generated. It fails with a *ProjectionError wrapping ErrEmptyLog,
// ErrMissingAuthor or ErrMissingTitle.
func NewTicket(id string, changeSets []ChangeSet) (*Ticket, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	newestFirst := sortNewestFirst(changeSets)
	if err := validateLog(newestFirst); err != nil {
		return nil, &ProjectionError{TicketID: id, Kind: err}
	}
	return &Ticket{
		id:         id,
		changeSets: newestFirst,
		view:       project(id, newestFirst),
	}, nil
}

// NewTicketFromFields wraps p into exactly one change-set and projects it
// through the same path as NewTicket.
func NewTicketFromFields(id string, p ChangeSetParams) (*Ticket, error) {
	cs, err := NewChangeSet(p)
	if err != nil {
		if errors.Is(err, ErrMissingAuthor) {
			return nil, &ProjectionError{TicketID: id, Kind: ErrMissingAuthor}
		}
		return nil, err
	}
	return NewTicket(id, []ChangeSet{cs})
}

// Identity implements Identified.
func (t *Ticket) Identity() string { return t.id }

func (t *Ticket) ID() string { return t.id }

// ChangeSets returns the log sorted newest-first.
func (t *Ticket) ChangeSets() []ChangeSet { return slices.Clone(t.changeSets) }

// Projection returns the projected view.
func (t *Ticket) Projection() Projection { return t.view.clone() }

func (t *Ticket) Author() Reference[User] { return t.view.Author }
func (t *Ticket) Created() time.Time { return t.view.Created }
func (t *Ticket) LastModified() time.Time { return t.view.LastModified }
func (t *Ticket) Title() LocalizedText { return t.view.Title }
func (t *Ticket) Status() StatusEntry { return t.view.Status }
func (t *Ticket) StatusHistory() []StatusEntry { return slices.Clone(t.view.StatusHistory) }
func (t *Ticket) Priority() Priority { return t.view.Priority }
func (t *Ticket) PrivacyLevel() PrivacyLevel { return t.view.PrivacyLevel }
func (t *Ticket) Location() LocalizedText { return t.view.Location }
func (t *Ticket) GeoLocation() Optional[GeoLocation] { return t.view.GeoLocation }
func (t *Ticket) AdditionalInfo() LocalizedText { return t.view.AdditionalInfo }
func (t *Ticket) Affected() AffectedSet { return t.view.Affected }
func (t *Ticket) ProblemDescriptions() TagSet[ProblemDescription] { return t.view.ProblemDescriptions }
func (t *Ticket) StatusIndicators() TagSet[StatusIndicator] { return t.view.StatusIndicators }
func (t *Ticket) Reactions() TagSet[Reaction] { return t.view.Reactions }
func (t *Ticket) AttachedFiles() TagSet[FileReference] { return t.view.AttachedFiles }
func (t *Ticket) TicketReferences() TagSet[TicketReference] { return t.view.TicketReferences }
func (t *Ticket) DataLicenses() TagSet[DataLicense] { return t.view.DataLicenses }
func (t *Ticket) FirstResponse() Optional[FirstResponseMark] { return t.view.FirstResponse }
func (t *Ticket) Comments() []Comment { return slices.Clone(t.view.Comments) }

// IntegrityHash runs the caller's hash over the projected fields.
func (t *Ticket) IntegrityHash(hash HashFunc) (string, error) {
	if hash == nil {
		return "", errors.New("no hash function supplied")
	}
	return hash(t.Projection())
}

// Builder starts a mutable staging area from this snapshot's log.
func (t *Ticket) Builder() *TicketBuilder {
	return NewTicketBuilder(t.id, t.changeSets...)
}
