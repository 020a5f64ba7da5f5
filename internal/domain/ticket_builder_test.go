package domain

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestTicketBuilder_ReadsReflectLatestAppend(t *testing.T) {
	b := NewTicketBuilder("ticket-1",
		newChangeSet("cs-1", at(1)).titled("projector").build(t))

	if b.Status().Status != StatusNew {
		t.Errorf("Status() = %v, want %v", b.Status(), StatusNew)
	}
	b.Append(newChangeSet("cs-2", at(2)).status("analysis").priority(PriorityHigh).build(t))
	if b.Status().Status != "analysis" {
		t.Errorf("Status() after append = %v, want analysis", b.Status())
	}
	if b.Priority() != PriorityHigh {
		t.Errorf("Priority() after append = %v, want %v", b.Priority(), PriorityHigh)
	}
	if len(b.StatusHistory()) != 2 {
		t.Errorf("len(StatusHistory()) = %d, want 2", len(b.StatusHistory()))
	}
}

func TestTicketBuilder_SnapshotIsolation(t *testing.T) {
	b := NewTicketBuilder("ticket-1",
		newChangeSet("cs-1", at(1)).titled("projector").priority(PriorityLow).build(t))
	snapshot, err := b.ToImmutable()
	if err != nil {
		t.Fatalf("ToImmutable() error = %v", err)
	}
	before := snapshot.Projection()

	b.Append(newChangeSet("cs-2", at(2)).titled("projector broken").priority(PriorityUrgent).status("closed").build(t))

	if !reflect.DeepEqual(snapshot.Projection(), before) {
		t.Errorf("snapshot changed after builder append:\n got %+v\nwant %+v", snapshot.Projection(), before)
	}
	if snapshot.Priority() != PriorityLow {
		t.Errorf("snapshot Priority() = %v, want %v", snapshot.Priority(), PriorityLow)
	}
	if len(snapshot.ChangeSets()) != 1 {
		t.Errorf("snapshot len(ChangeSets()) = %d, want 1", len(snapshot.ChangeSets()))
	}
}

func TestTicketBuilder_ToImmutableValidates(t *testing.T) {
	tests := []struct {
		name string
		log  []ChangeSet
		want error
	}{
		{name: "empty", want: ErrEmptyLog},
		{name: "untitled", log: []ChangeSet{newChangeSet("cs-1", at(1)).build(t)}, want: ErrMissingTitle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewTicketBuilder("ticket-1", tt.log...)
			if _, err := b.ToImmutable(); !errors.Is(err, tt.want) {
				t.Errorf("ToImmutable() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTicketBuilder_AppendNeverFails(t *testing.T) {
	b := NewTicketBuilder("")
	if b.ID() == "" {
		t.Fatal("ID() is empty, want generated id")
	}
	b.Append(newChangeSet("cs-1", at(1)).build(t))
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
	if !b.Title().IsEmpty() {
		t.Errorf("Title() = %v, want empty", b.Title())
	}
}

// Both views share the projection functions, so presence-based resolution
// applies uniformly to priority, geo location, status and privacy.
func TestTicketBuilder_MatchesTicket(t *testing.T) {
	log := []ChangeSet{
		newChangeSet("cs-1", at(1)).titled("gate").priority(PriorityHigh).privacy(PrivacyPublic).geo(1, 2).status("triage").build(t),
		newChangeSet("cs-2", at(2)).comment("checking").build(t),
		newChangeSet("cs-3", at(3)).firstResponse(90*time.Minute, "cs-3").build(t),
	}
	b := NewTicketBuilder("ticket-1", log...)
	ticket, err := b.ToImmutable()
	if err != nil {
		t.Fatalf("ToImmutable() error = %v", err)
	}

	if b.Priority() != ticket.Priority() || b.Priority() != PriorityHigh {
		t.Errorf("Priority() builder %v, ticket %v, want %v", b.Priority(), ticket.Priority(), PriorityHigh)
	}
	if b.PrivacyLevel() != ticket.PrivacyLevel() || b.PrivacyLevel() != PrivacyPublic {
		t.Errorf("PrivacyLevel() builder %v, ticket %v", b.PrivacyLevel(), ticket.PrivacyLevel())
	}
	if b.GeoLocation() != ticket.GeoLocation() {
		t.Errorf("GeoLocation() builder %v, ticket %v", b.GeoLocation(), ticket.GeoLocation())
	}
	if b.Status() != ticket.Status() {
		t.Errorf("Status() builder %v, ticket %v", b.Status(), ticket.Status())
	}
	if !reflect.DeepEqual(b.Projection(), ticket.Projection()) {
		t.Errorf("Projection() differs:\nbuilder %+v\n ticket %+v", b.Projection(), ticket.Projection())
	}
}

func TestTicket_BuilderRoundTrip(t *testing.T) {
	ticket := mustTicket(t, newChangeSet("cs-1", at(1)).titled("fridge").build(t))
	b := ticket.Builder()
	b.Append(newChangeSet("cs-2", at(2)).status("closed").build(t))

	if ticket.Status().Status != StatusNew {
		t.Errorf("original Status() = %v, want %v", ticket.Status(), StatusNew)
	}
	next, err := b.ToImmutable()
	if err != nil {
		t.Fatalf("ToImmutable() error = %v", err)
	}
	if next.ID() != ticket.ID() || next.Status().Status != StatusClosed {
		t.Errorf("next = %s %v, want %s closed", next.ID(), next.Status(), ticket.ID())
	}
}
