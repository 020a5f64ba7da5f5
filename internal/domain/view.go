package domain

import (
	"slices"
	"time"
)

// StatusEntry pairs a change-set timestamp with the status in effect at
// that instant.
type StatusEntry struct {
	Timestamp time.Time
	Status    Status
}

// Comment is one entry of a ticket's comment thread.
type Comment struct {
	ChangeSetID string
	Timestamp   time.Time
	Author      Reference[User]
	Text        LocalizedText
	InReplyTo   Optional[string]
}

// Projection is the read-only current-state view of a ticket. Serializers
// and hash functions consume it without touching the raw log.
type Projection struct {
	ID                  string
	Author              Reference[User]
	Created             time.Time
	LastModified        time.Time
	Title               LocalizedText
	Status              StatusEntry
	StatusHistory       []StatusEntry
	Priority            Priority
	PrivacyLevel        PrivacyLevel
	Location            LocalizedText
	GeoLocation         Optional[GeoLocation]
	AdditionalInfo      LocalizedText
	Affected            AffectedSet
	ProblemDescriptions TagSet[ProblemDescription]
	StatusIndicators    TagSet[StatusIndicator]
	Reactions           TagSet[Reaction]
	AttachedFiles       TagSet[FileReference]
	TicketReferences    TagSet[TicketReference]
	DataLicenses        TagSet[DataLicense]
	FirstResponse       Optional[FirstResponseMark]
	Comments            []Comment
	ChangeSetCount      int
}

func (p Projection) clone() Projection {
	p.StatusHistory = slices.Clone(p.StatusHistory)
	p.Comments = slices.Clone(p.Comments)
	return p
}

// View is implemented by both the frozen Ticket and the TicketBuilder.
type View interface {
	ID() string
	Projection() Projection
}

// HashFunc computes an integrity hash over a ticket's projected fields. The
// core never implements one; callers supply it.
type HashFunc func(Projection) (string, error)

var (
	_ View = (*Ticket)(nil)
	_ View = (*TicketBuilder)(nil)
)
