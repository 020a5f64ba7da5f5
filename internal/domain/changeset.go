package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChangeSetParams carries the fields of a change-set before construction.
// Zero-valued texts and sets mean "not supplied".
type ChangeSetParams struct {
	ID                  string
	Timestamp           time.Time
	Author              Reference[User]
	Status              Optional[Status]
	Title               LocalizedText
	Location            LocalizedText
	AdditionalInfo      LocalizedText
	Comment             LocalizedText
	Affected            AffectedSet
	Priority            Optional[Priority]
	PrivacyLevel        Optional[PrivacyLevel]
	GeoLocation         Optional[GeoLocation]
	ProblemDescriptions TagSet[ProblemDescription]
	StatusIndicators    TagSet[StatusIndicator]
	Reactions           TagSet[Reaction]
	FirstResponse       Optional[FirstResponseMark]
	AttachedFiles       TagSet[FileReference]
	TicketReferences    TagSet[TicketReference]
	CommentReferences   TagSet[CommentReference]
	DataLicenses        TagSet[DataLicense]
	InReplyTo           Optional[string]
	DataSource          string
}

// ChangeSet is one immutable partial-update event in a ticket's log.
// Corrections are new change-sets, never edits.
type ChangeSet struct {
	id                  string
	timestamp           time.Time
	author              Reference[User]
	status              Optional[Status]
	title               LocalizedText
	location            LocalizedText
	additionalInfo      LocalizedText
	comment             LocalizedText
	affected            AffectedSet
	priority            Optional[Priority]
	privacyLevel        Optional[PrivacyLevel]
	geoLocation         Optional[GeoLocation]
	problemDescriptions TagSet[ProblemDescription]
	statusIndicators    TagSet[StatusIndicator]
	reactions           TagSet[Reaction]
	firstResponse       Optional[FirstResponseMark]
	attachedFiles       TagSet[FileReference]
	ticketReferences    TagSet[TicketReference]
	commentReferences   TagSet[CommentReference]
	dataLicenses        TagSet[DataLicense]
	inReplyTo           Optional[string]
	dataSource          string
}

// NewChangeSet validates p. A missing author fails with ErrMissingAuthor;
// a missing id is generated and a zero timestamp becomes now.
func NewChangeSet(p ChangeSetParams) (ChangeSet, error) {
	if p.Author.IsZero() {
		return ChangeSet{}, ErrMissingAuthor
	}
	id := strings.TrimSpace(p.ID)
	if id == "" {
		id = uuid.NewString()
	}
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	inReplyTo := p.InReplyTo
	if v, ok := inReplyTo.Get(); ok && strings.TrimSpace(v) == "" {
		inReplyTo = None[string]()
	}
	return ChangeSet{
		id:                  id,
		timestamp:           ts.UTC(),
		author:              p.Author,
		status:              p.Status,
		title:               p.Title,
		location:            p.Location,
		additionalInfo:      p.AdditionalInfo,
		comment:             p.Comment,
		affected:            p.Affected,
		priority:            p.Priority,
		privacyLevel:        p.PrivacyLevel,
		geoLocation:         p.GeoLocation,
		problemDescriptions: p.ProblemDescriptions,
		statusIndicators:    p.StatusIndicators,
		reactions:           p.Reactions,
		firstResponse:       p.FirstResponse,
		attachedFiles:       p.AttachedFiles,
		ticketReferences:    p.TicketReferences,
		commentReferences:   p.CommentReferences,
		dataLicenses:        p.DataLicenses,
		inReplyTo:           inReplyTo,
		dataSource:          p.DataSource,
	}, nil
}

// Params returns the fields of c, suitable for deriving a new change-set.
func (c ChangeSet) Params() ChangeSetParams {
	return ChangeSetParams{
		ID:                  c.id,
		Timestamp:           c.timestamp,
		Author:              c.author,
		Status:              c.status,
		Title:               c.title,
		Location:            c.location,
		AdditionalInfo:      c.additionalInfo,
		Comment:             c.comment,
		Affected:            c.affected,
		Priority:            c.priority,
		PrivacyLevel:        c.privacyLevel,
		GeoLocation:         c.geoLocation,
		ProblemDescriptions: c.problemDescriptions,
		StatusIndicators:    c.statusIndicators,
		Reactions:           c.reactions,
		FirstResponse:       c.firstResponse,
		AttachedFiles:       c.attachedFiles,
		TicketReferences:    c.ticketReferences,
		CommentReferences:   c.commentReferences,
		DataLicenses:        c.dataLicenses,
		InReplyTo:           c.inReplyTo,
		DataSource:          c.dataSource,
	}
}

// Identity implements Identified.
func (c ChangeSet) Identity() string { return c.id }

func (c ChangeSet) ID() string { return c.id }
func (c ChangeSet) Timestamp() time.Time { return c.timestamp }
func (c ChangeSet) Author() Reference[User] { return c.author }
func (c ChangeSet) Status() Optional[Status] { return c.status }
func (c ChangeSet) Title() LocalizedText { return c.title }
func (c ChangeSet) Location() LocalizedText { return c.location }
func (c ChangeSet) AdditionalInfo() LocalizedText { return c.additionalInfo }
func (c ChangeSet) Comment() LocalizedText { return c.comment }
func (c ChangeSet) Affected() AffectedSet { return c.affected }
func (c ChangeSet) Priority() Optional[Priority] { return c.priority }
func (c ChangeSet) PrivacyLevel() Optional[PrivacyLevel] { return c.privacyLevel }
func (c ChangeSet) GeoLocation() Optional[GeoLocation] { return c.geoLocation }
func (c ChangeSet) ProblemDescriptions() TagSet[ProblemDescription] { return c.problemDescriptions }
func (c ChangeSet) StatusIndicators() TagSet[StatusIndicator] { return c.statusIndicators }
func (c ChangeSet) Reactions() TagSet[Reaction] { return c.reactions }
func (c ChangeSet) FirstResponse() Optional[FirstResponseMark] { return c.firstResponse }
func (c ChangeSet) AttachedFiles() TagSet[FileReference] { return c.attachedFiles }
func (c ChangeSet) TicketReferences() TagSet[TicketReference] { return c.ticketReferences }
func (c ChangeSet) CommentReferences() TagSet[CommentReference] { return c.commentReferences }
func (c ChangeSet) DataLicenses() TagSet[DataLicense] { return c.dataLicenses }
func (c ChangeSet) InReplyTo() Optional[string] { return c.inReplyTo }
func (c ChangeSet) DataSource() string { return c.dataSource }
