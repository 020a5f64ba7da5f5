package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketBuilder stages appends to a ticket's log. Every getter re-derives
// its value from the current log, so reads always reflect the latest
// append. A builder is not safe for concurrent use; callers keep one
// writer per ticket id.
type TicketBuilder struct {
	id  string
	log []ChangeSet
}

// NewTicketBuilder starts a builder; an empty id is generated.
func NewTicketBuilder(id string, changeSets ...ChangeSet) *TicketBuilder {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	return &TicketBuilder{id: id, log: slices.Clone(changeSets)}
}

// Append adds a change-set to the live log. Invariants are checked only by
// ToImmutable.
func (b *TicketBuilder) Append(cs ChangeSet) *TicketBuilder {
	b.log = append(b.log, cs)
	return b
}

// Len returns the number of staged change-sets.
func (b *TicketBuilder) Len() int { return len(b.log) }

// ToImmutable snapshots the current log into a Ticket that shares no
// storage with the builder.
func (b *TicketBuilder) ToImmutable() (*Ticket, error) {
	return NewTicket(b.id, slices.Clone(b.log))
}

func (b *TicketBuilder) newestFirst() []ChangeSet {
	return sortNewestFirst(b.log)
}

func (b *TicketBuilder) oldestFirst() []ChangeSet {
	return sortOldestFirst(b.log)
}

// Identity implements Identified.
func (b *TicketBuilder) Identity() string { return b.id }

func (b *TicketBuilder) ID() string { return b.id }

// ChangeSets returns the staged log sorted newest-first.
func (b *TicketBuilder) ChangeSets() []ChangeSet { return b.newestFirst() }

// Projection derives the full view without enforcing ticket invariants.
func (b *TicketBuilder) Projection() Projection { return project(b.id, b.log) }

func (b *TicketBuilder) Author() Reference[User] { return resolveAuthor(b.newestFirst()) }
func (b *TicketBuilder) Created() time.Time { return resolveCreated(b.newestFirst()) }
func (b *TicketBuilder) LastModified() time.Time { return resolveLastModified(b.newestFirst()) }
func (b *TicketBuilder) Title() LocalizedText { return resolveTitle(b.newestFirst()) }
func (b *TicketBuilder) Priority() Priority { return resolvePriority(b.newestFirst()) }
func (b *TicketBuilder) PrivacyLevel() PrivacyLevel { return resolvePrivacyLevel(b.newestFirst()) }
func (b *TicketBuilder) Location() LocalizedText { return resolveLocation(b.newestFirst()) }
func (b *TicketBuilder) GeoLocation() Optional[GeoLocation] { return resolveGeoLocation(b.newestFirst()) }
func (b *TicketBuilder) AdditionalInfo() LocalizedText { return resolveAdditionalInfo(b.newestFirst()) }
func (b *TicketBuilder) Affected() AffectedSet { return resolveAffected(b.newestFirst()) }
func (b *TicketBuilder) ProblemDescriptions() TagSet[ProblemDescription] {
	return resolveProblemDescriptions(b.newestFirst())
}
func (b *TicketBuilder) StatusIndicators() TagSet[StatusIndicator] {
	return resolveStatusIndicators(b.newestFirst())
}
func (b *TicketBuilder) Reactions() TagSet[Reaction] { return resolveReactions(b.newestFirst()) }
func (b *TicketBuilder) AttachedFiles() TagSet[FileReference] {
	return resolveAttachedFiles(b.newestFirst())
}
func (b *TicketBuilder) TicketReferences() TagSet[TicketReference] {
	return resolveTicketReferences(b.newestFirst())
}
func (b *TicketBuilder) DataLicenses() TagSet[DataLicense] { return resolveDataLicenses(b.newestFirst()) }
func (b *TicketBuilder) FirstResponse() Optional[FirstResponseMark] {
	return resolveFirstResponse(b.newestFirst())
}
func (b *TicketBuilder) Comments() []Comment { return commentThread(b.oldestFirst()) }

// StatusHistory derives the timeline from the current log.
func (b *TicketBuilder) StatusHistory() []StatusEntry {
	return statusTimeline(b.oldestFirst())
}

// Status derives the current status from the current log.
func (b *TicketBuilder) Status() StatusEntry {
	oldest := b.oldestFirst()
	return resolveStatus(oldest, statusTimeline(oldest))
}
