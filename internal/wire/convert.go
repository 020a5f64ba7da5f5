package wire

import (
	"strings"
	"time"

	"github.com/spec-kit/ticket-ledger/internal/domain"
)

// FromChangeSet encodes cs. ticketID may be empty when the caller stores
// the owning ticket elsewhere.
func FromChangeSet(ticketID string, cs domain.ChangeSet) ChangeSet {
	author := FromUserRef(cs.Author())
	out := ChangeSet{
		ID:                  cs.ID(),
		TicketID:            ticketID,
		Timestamp:           cs.Timestamp(),
		Author:              &author,
		Title:               FromText(cs.Title()),
		Location:            FromText(cs.Location()),
		AdditionalInfo:      FromText(cs.AdditionalInfo()),
		Comment:             FromText(cs.Comment()),
		ProblemDescriptions: fromTags(cs.ProblemDescriptions()),
		StatusIndicators:    fromTags(cs.StatusIndicators()),
		Reactions:           fromTags(cs.Reactions()),
		AttachedFiles:       fromTags(cs.AttachedFiles()),
		TicketReferences:    fromTags(cs.TicketReferences()),
		CommentReferences:   fromTags(cs.CommentReferences()),
		DataLicenses:        fromTags(cs.DataLicenses()),
		InReplyTo:           cs.InReplyTo().OrElse(""),
		DataSource:          cs.DataSource(),
	}
	if s, ok := cs.Status().Get(); ok {
		out.Status = stringPtr(s.String())
	}
	if !cs.Affected().IsEmpty() {
		affected := FromAffected(cs.Affected())
		out.Affected = &affected
	}
	if p, ok := cs.Priority().Get(); ok {
		out.Priority = stringPtr(string(p))
	}
	if l, ok := cs.PrivacyLevel().Get(); ok {
		out.PrivacyLevel = stringPtr(string(l))
	}
	if g, ok := cs.GeoLocation().Get(); ok {
		out.GeoLocation = &GeoLocation{Latitude: g.Latitude, Longitude: g.Longitude}
	}
	if m, ok := cs.FirstResponse().Get(); ok {
		out.FirstResponse = fromFirstResponse(m)
	}
	return out
}

// ToDomain decodes the record. Format and range failures wrap
// domain.ErrMalformedValue; a record without author fails with
// domain.ErrMissingAuthor.
func (c ChangeSet) ToDomain() (domain.ChangeSet, error) {
	if c.Timestamp.IsZero() {
		return domain.ChangeSet{}, &domain.ValueError{Field: "timestamp", Reason: "missing"}
	}
	p := domain.ChangeSetParams{
		ID:                  c.ID,
		Timestamp:           c.Timestamp,
		ProblemDescriptions: toTags[domain.ProblemDescription](c.ProblemDescriptions),
		StatusIndicators:    toTags[domain.StatusIndicator](c.StatusIndicators),
		Reactions:           toTags[domain.Reaction](c.Reactions),
		AttachedFiles:       toTags[domain.FileReference](c.AttachedFiles),
		TicketReferences:    toTags[domain.TicketReference](c.TicketReferences),
		CommentReferences:   toTags[domain.CommentReference](c.CommentReferences),
		DataLicenses:        toTags[domain.DataLicense](c.DataLicenses),
		DataSource:          c.DataSource,
	}
	if c.Author != nil {
		p.Author = c.Author.ToDomain()
	}
	var err error
	if p.Title, err = c.Title.ToDomain(); err != nil {
		return domain.ChangeSet{}, err
	}
	if p.Location, err = c.Location.ToDomain(); err != nil {
		return domain.ChangeSet{}, err
	}
	if p.AdditionalInfo, err = c.AdditionalInfo.ToDomain(); err != nil {
		return domain.ChangeSet{}, err
	}
	if p.Comment, err = c.Comment.ToDomain(); err != nil {
		return domain.ChangeSet{}, err
	}
	if c.Status != nil {
		status, err := domain.ParseStatus(*c.Status)
		if err != nil {
			return domain.ChangeSet{}, err
		}
		p.Status = domain.Some(status)
	}
	if c.Affected != nil {
		p.Affected = c.Affected.ToDomain()
	}
	if c.Priority != nil {
		priority, err := domain.ParsePriority(*c.Priority)
		if err != nil {
			return domain.ChangeSet{}, err
		}
		p.Priority = domain.Some(priority)
	}
	if c.PrivacyLevel != nil {
		level, err := domain.ParsePrivacyLevel(*c.PrivacyLevel)
		if err != nil {
			return domain.ChangeSet{}, err
		}
		p.PrivacyLevel = domain.Some(level)
	}
	if c.GeoLocation != nil {
		geo, err := domain.NewGeoLocation(c.GeoLocation.Latitude, c.GeoLocation.Longitude)
		if err != nil {
			return domain.ChangeSet{}, err
		}
		p.GeoLocation = domain.Some(geo)
	}
	if c.FirstResponse != nil {
		mark, err := c.FirstResponse.ToDomain()
		if err != nil {
			return domain.ChangeSet{}, err
		}
		p.FirstResponse = domain.Some(mark)
	}
	if strings.TrimSpace(c.InReplyTo) != "" {
		p.InReplyTo = domain.Some(c.InReplyTo)
	}
	return domain.NewChangeSet(p)
}

// FromText returns nil for empty text.
func FromText(t domain.LocalizedText) Text {
	if t.IsEmpty() {
		return nil
	}
	return Text(t.Entries())
}

func (t Text) ToDomain() (domain.LocalizedText, error) {
	return domain.NewLocalizedText(t)
}

func FromUserRef(ref domain.Reference[domain.User]) UserRef {
	out := UserRef{ID: ref.ID()}
	if u, ok := ref.Payload(); ok {
		out.Name = u.Name
		out.Email = u.Email
		out.OrganizationID = u.OrganizationID
	}
	return out
}

// ToDomain treats a record carrying any directory field as resolved.
func (r UserRef) ToDomain() domain.Reference[domain.User] {
	if r.Name == "" && r.Email == "" && r.OrganizationID == nil {
		return domain.Ref[domain.User](r.ID)
	}
	return domain.ResolvedRef(r.ID, &domain.User{
		ID:             r.ID,
		Name:           r.Name,
		Email:          r.Email,
		OrganizationID: r.OrganizationID,
	})
}

func FromOrganizationRef(ref domain.Reference[domain.Organization]) OrganizationRef {
	out := OrganizationRef{ID: ref.ID()}
	if o, ok := ref.Payload(); ok {
		out.Name = o.Name
		out.Description = o.Description
	}
	return out
}

func (r OrganizationRef) ToDomain() domain.Reference[domain.Organization] {
	if r.Name == "" && r.Description == "" {
		return domain.Ref[domain.Organization](r.ID)
	}
	return domain.ResolvedRef(r.ID, &domain.Organization{ID: r.ID, Name: r.Name, Description: r.Description})
}

func FromTicketRef(ref domain.Reference[domain.Ticket]) TicketRef {
	out := TicketRef{ID: ref.ID()}
	if t, ok := ref.Payload(); ok {
		out.Title = FromText(t.Title())
	}
	return out
}

// FromAffected encodes every entry, keeping resolved payloads.
func FromAffected(a domain.AffectedSet) Affected {
	var out Affected
	for _, ref := range a.Tickets().Refs() {
		out.Tickets = append(out.Tickets, FromTicketRef(ref))
	}
	for _, ref := range a.Users().Refs() {
		out.Users = append(out.Users, FromUserRef(ref))
	}
	for _, ref := range a.Organizations().Refs() {
		out.Organizations = append(out.Organizations, FromOrganizationRef(ref))
	}
	return out
}

// ToDomain decodes the set. Ticket references always decode id-only: a
// ticket payload can only be rebuilt from its own log.
func (a Affected) ToDomain() domain.AffectedSet {
	tickets := make([]domain.Reference[domain.Ticket], 0, len(a.Tickets))
	for _, ref := range a.Tickets {
		tickets = append(tickets, domain.Ref[domain.Ticket](ref.ID))
	}
	users := make([]domain.Reference[domain.User], 0, len(a.Users))
	for _, ref := range a.Users {
		users = append(users, ref.ToDomain())
	}
	orgs := make([]domain.Reference[domain.Organization], 0, len(a.Organizations))
	for _, ref := range a.Organizations {
		orgs = append(orgs, ref.ToDomain())
	}
	return domain.NewAffectedSet(tickets, users, orgs)
}

func fromFirstResponse(m domain.FirstResponseMark) *FirstResponse {
	return &FirstResponse{ElapsedSeconds: m.ElapsedSeconds(), ChangeSet: m.ChangeSetID()}
}

func (f FirstResponse) ToDomain() (domain.FirstResponseMark, error) {
	return domain.NewFirstResponseMark(time.Duration(f.ElapsedSeconds)*time.Second, f.ChangeSet)
}

// FromProjection renders the projected view as a ticket document.
func FromProjection(p domain.Projection) Ticket {
	out := Ticket{
		Context:             TicketContext,
		Type:                TicketType,
		ID:                  p.ID,
		Author:              FromUserRef(p.Author),
		Created:             p.Created,
		LastModified:        p.LastModified,
		Title:               FromText(p.Title),
		Status:              fromStatusEntry(p.Status),
		StatusHistory:       make([]StatusEntry, 0, len(p.StatusHistory)),
		Priority:            string(p.Priority),
		PrivacyLevel:        string(p.PrivacyLevel),
		Location:            FromText(p.Location),
		AdditionalInfo:      FromText(p.AdditionalInfo),
		Affected:            FromAffected(p.Affected),
		ProblemDescriptions: fromTags(p.ProblemDescriptions),
		StatusIndicators:    fromTags(p.StatusIndicators),
		Reactions:           fromTags(p.Reactions),
		AttachedFiles:       fromTags(p.AttachedFiles),
		TicketReferences:    fromTags(p.TicketReferences),
		DataLicenses:        fromTags(p.DataLicenses),
		ChangeSetCount:      p.ChangeSetCount,
	}
	for _, entry := range p.StatusHistory {
		out.StatusHistory = append(out.StatusHistory, fromStatusEntry(entry))
	}
	if g, ok := p.GeoLocation.Get(); ok {
		out.GeoLocation = &GeoLocation{Latitude: g.Latitude, Longitude: g.Longitude}
	}
	if m, ok := p.FirstResponse.Get(); ok {
		out.FirstResponse = fromFirstResponse(m)
	}
	for _, c := range p.Comments {
		out.Comments = append(out.Comments, Comment{
			ChangeSet: c.ChangeSetID,
			Timestamp: c.Timestamp,
			Author:    FromUserRef(c.Author),
			Text:      FromText(c.Text),
			InReplyTo: c.InReplyTo.OrElse(""),
		})
	}
	return out
}

func FromStatusHistory(history []domain.StatusEntry) []StatusEntry {
	out := make([]StatusEntry, 0, len(history))
	for _, entry := range history {
		out = append(out, fromStatusEntry(entry))
	}
	return out
}

func fromStatusEntry(e domain.StatusEntry) StatusEntry {
	return StatusEntry{Timestamp: e.Timestamp, Status: e.Status.String()}
}

func fromTags[T ~string](set domain.TagSet[T]) []string {
	if set.IsEmpty() {
		return nil
	}
	values := set.Values()
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func toTags[T ~string](values []string) domain.TagSet[T] {
	items := make([]T, len(values))
	for i, v := range values {
		items[i] = T(v)
	}
	return domain.NewTagSet(items...)
}

func stringPtr(s string) *string {
	return &s
}
