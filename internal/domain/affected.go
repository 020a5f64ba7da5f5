package domain

import (
	"context"
	"fmt"
)

// AffectedSet names the tickets, users and organizations implicated by a
// ticket or change-set. Every member is identified by id alone.
type AffectedSet struct {
	tickets       RefSet[Ticket]
	users         RefSet[User]
	organizations RefSet[Organization]
}

// NewAffectedSet builds a set from the three reference lists.
func NewAffectedSet(tickets []Reference[Ticket], users []Reference[User], organizations []Reference[Organization]) AffectedSet {
	return AffectedSet{
		tickets:       NewRefSet(tickets...),
		users:         NewRefSet(users...),
		organizations: NewRefSet(organizations...),
	}
}

func (a AffectedSet) Tickets() RefSet[Ticket] {
	return a.tickets
}

func (a AffectedSet) Users() RefSet[User] {
	return a.users
}

func (a AffectedSet) Organizations() RefSet[Organization] {
	return a.organizations
}

// IsEmpty reports whether all three sets are empty.
func (a AffectedSet) IsEmpty() bool {
	return a.tickets.IsEmpty() && a.users.IsEmpty() && a.organizations.IsEmpty()
}

// SameMembers compares two sets by member ids.
func (a AffectedSet) SameMembers(other AffectedSet) bool {
	return a.tickets.SameMembers(other.tickets) &&
		a.users.SameMembers(other.users) &&
		a.organizations.SameMembers(other.organizations)
}

// MergeAffected unions a and b per kind. For a shared id the entry carrying
// a resolved payload is kept; when both do, b's wins.
func MergeAffected(a, b AffectedSet) AffectedSet {
	return AffectedSet{
		tickets:       a.tickets.Union(b.tickets),
		users:         a.users.Union(b.users),
		organizations: a.organizations.Union(b.organizations),
	}
}

// Resolvers are the caller's lookup delegates. A nil delegate leaves
// references of that kind untouched. A delegate returning (nil, nil) marks
// the id as unresolved.
type Resolvers struct {
	Ticket       func(ctx context.Context, id string) (*Ticket, error)
	User         func(ctx context.Context, id string) (*User, error)
	Organization func(ctx context.Context, id string) (*Organization, error)
}

// Unresolved lists ids that stayed id-only after expansion.
type Unresolved struct {
	Tickets       []string
	Users         []string
	Organizations []string
}

// IsEmpty reports whether every reference was resolved.
func (u Unresolved) IsEmpty() bool {
	return len(u.Tickets) == 0 && len(u.Users) == 0 && len(u.Organizations) == 0
}

// Err converts the unresolved ids into a ReferenceError, or nil.
func (u Unresolved) Err() error {
	if u.IsEmpty() {
		return nil
	}
	return &ReferenceError{Tickets: u.Tickets, Users: u.Users, Organizations: u.Organizations}
}

// Expand attaches payloads to id-only references using each reference's
// own lazy resolver first and the matching delegate second. It never
// decides that a missing id is an error; it reports which ones stayed
// unresolved.
func (a AffectedSet) Expand(ctx context.Context, resolvers Resolvers) (AffectedSet, Unresolved, error) {
	var unresolved Unresolved
	tickets, missing, err := expandSet(ctx, a.tickets, resolvers.Ticket)
	if err != nil {
		return AffectedSet{}, Unresolved{}, fmt.Errorf("expand tickets: %w", err)
	}
	unresolved.Tickets = missing
	users, missing, err := expandSet(ctx, a.users, resolvers.User)
	if err != nil {
		return AffectedSet{}, Unresolved{}, fmt.Errorf("expand users: %w", err)
	}
	unresolved.Users = missing
	orgs, missing, err := expandSet(ctx, a.organizations, resolvers.Organization)
	if err != nil {
		return AffectedSet{}, Unresolved{}, fmt.Errorf("expand organizations: %w", err)
	}
	unresolved.Organizations = missing
	return AffectedSet{tickets: tickets, users: users, organizations: orgs}, unresolved, nil
}

func expandSet[T any](ctx context.Context, set RefSet[T], lookup func(context.Context, string) (*T, error)) (RefSet[T], []string, error) {
	refs := set.Refs()
	var missing []string
	for i, ref := range refs {
		if ref.IsResolved() {
			continue
		}
		payload, err := ref.Resolve(ctx)
		if err != nil {
			return RefSet[T]{}, nil, err
		}
		if payload == nil && lookup != nil {
			payload, err = lookup(ctx, ref.ID())
			if err != nil {
				return RefSet[T]{}, nil, err
			}
		}
		if payload == nil {
			missing = append(missing, ref.ID())
			continue
		}
		refs[i] = ref.WithPayload(payload)
	}
	return RefSet[T]{refs: refs}, missing, nil
}

// AffectedSetBuilder exposes the three sets as mutable collections. Freeze
// copies them into an immutable AffectedSet.
type AffectedSetBuilder struct {
	Tickets       map[string]Reference[Ticket]
	Users         map[string]Reference[User]
	Organizations map[string]Reference[Organization]
}

// NewAffectedSetBuilder starts a builder seeded from base.
func NewAffectedSetBuilder(base AffectedSet) *AffectedSetBuilder {
	b := &AffectedSetBuilder{
		Tickets:       make(map[string]Reference[Ticket]),
		Users:         make(map[string]Reference[User]),
		Organizations: make(map[string]Reference[Organization]),
	}
	for _, ref := range base.tickets.refs {
		b.Tickets[ref.id] = ref
	}
	for _, ref := range base.users.refs {
		b.Users[ref.id] = ref
	}
	for _, ref := range base.organizations.refs {
		b.Organizations[ref.id] = ref
	}
	return b
}

// AddTicket inserts or enriches a ticket reference.
func (b *AffectedSetBuilder) AddTicket(ref Reference[Ticket]) *AffectedSetBuilder {
	addRef(b.Tickets, ref)
	return b
}

// AddUser inserts or enriches a user reference.
func (b *AffectedSetBuilder) AddUser(ref Reference[User]) *AffectedSetBuilder {
	addRef(b.Users, ref)
	return b
}

// AddOrganization inserts or enriches an organization reference.
func (b *AffectedSetBuilder) AddOrganization(ref Reference[Organization]) *AffectedSetBuilder {
	addRef(b.Organizations, ref)
	return b
}

func addRef[T any](set map[string]Reference[T], ref Reference[T]) {
	if ref.IsZero() {
		return
	}
	if existing, ok := set[ref.id]; ok {
		set[ref.id] = richer(existing, ref)
		return
	}
	set[ref.id] = ref
}

// Freeze snapshots the builder. Later builder mutations do not affect the
// returned set.
func (b *AffectedSetBuilder) Freeze() AffectedSet {
	return AffectedSet{
		tickets:       freezeRefs(b.Tickets),
		users:         freezeRefs(b.Users),
		organizations: freezeRefs(b.Organizations),
	}
}

func freezeRefs[T any](set map[string]Reference[T]) RefSet[T] {
	refs := make([]Reference[T], 0, len(set))
	for id, ref := range set {
		ref.id = id
		refs = append(refs, ref)
	}
	return NewRefSet(refs...)
}
