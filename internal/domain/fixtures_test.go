package domain

import (
	"testing"
	"time"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func at(hours int) time.Time {
	return baseTime.Add(time.Duration(hours) * time.Hour)
}

// changeSetBuilder builds change-sets for tests.
type changeSetBuilder struct {
	params ChangeSetParams
}

func newChangeSet(id string, ts time.Time) *changeSetBuilder {
	return &changeSetBuilder{params: ChangeSetParams{
		ID:        id,
		Timestamp: ts,
		Author:    Ref[User]("agent-1"),
	}}
}

func (b *changeSetBuilder) by(userID string) *changeSetBuilder {
	b.params.Author = Ref[User](userID)
	return b
}

func (b *changeSetBuilder) titled(title string) *changeSetBuilder {
	b.params.Title = Text("en", title)
	return b
}

func (b *changeSetBuilder) status(s Status) *changeSetBuilder {
	b.params.Status = Some(s)
	return b
}

func (b *changeSetBuilder) priority(p Priority) *changeSetBuilder {
	b.params.Priority = Some(p)
	return b
}

func (b *changeSetBuilder) privacy(level PrivacyLevel) *changeSetBuilder {
	b.params.PrivacyLevel = Some(level)
	return b
}

func (b *changeSetBuilder) firstResponse(elapsed time.Duration, changeSetID string) *changeSetBuilder {
	mark, err := NewFirstResponseMark(elapsed, changeSetID)
	if err != nil {
		panic(err)
	}
	b.params.FirstResponse = Some(mark)
	return b
}

func (b *changeSetBuilder) comment(text string) *changeSetBuilder {
	b.params.Comment = Text("en", text)
	return b
}

func (b *changeSetBuilder) replyTo(changeSetID string) *changeSetBuilder {
	b.params.InReplyTo = Some(changeSetID)
	return b
}

func (b *changeSetBuilder) reactions(values ...Reaction) *changeSetBuilder {
	b.params.Reactions = NewTagSet(values...)
	return b
}

func (b *changeSetBuilder) affectedUsers(ids ...string) *changeSetBuilder {
	refs := make([]Reference[User], len(ids))
	for i, id := range ids {
		refs[i] = Ref[User](id)
	}
	b.params.Affected = NewAffectedSet(nil, refs, nil)
	return b
}

func (b *changeSetBuilder) geo(lat, lon float64) *changeSetBuilder {
	b.params.GeoLocation = Some(GeoLocation{Latitude: lat, Longitude: lon})
	return b
}

func (b *changeSetBuilder) build(t *testing.T) ChangeSet {
	t.Helper()
	cs, err := NewChangeSet(b.params)
	if err != nil {
		t.Fatalf("NewChangeSet() error = %v", err)
	}
	return cs
}

func mustTicket(t *testing.T, changeSets ...ChangeSet) *Ticket {
	t.Helper()
	ticket, err := NewTicket("ticket-1", changeSets)
	if err != nil {
		t.Fatalf("NewTicket() error = %v", err)
	}
	return ticket
}
