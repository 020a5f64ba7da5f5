package domain

import (
	"context"
	"slices"
	"strings"
)

// Resolver lazily produces the payload of a reference.
type Resolver[T any] func(ctx context.Context) (*T, error)

// Reference points at a ticket, user or organization by id, optionally
// carrying an already resolved payload or a lazy resolver. Equality is by
// id alone.
type Reference[T any] struct {
	id       string
	payload  *T
	resolver Resolver[T]
}

// Ref returns an id-only reference.
func Ref[T any](id string) Reference[T] {
	return Reference[T]{id: strings.TrimSpace(id)}
}

// ResolvedRef returns a reference carrying its payload.
func ResolvedRef[T any](id string, payload *T) Reference[T] {
	return Reference[T]{id: strings.TrimSpace(id), payload: payload}
}

// LazyRef returns a reference that resolves on demand.
func LazyRef[T any](id string, resolver Resolver[T]) Reference[T] {
	return Reference[T]{id: strings.TrimSpace(id), resolver: resolver}
}

func (r Reference[T]) ID() string {
	return r.id
}

// Identity implements Identified.
func (r Reference[T]) Identity() string {
	return r.id
}

// IsZero reports a reference without id.
func (r Reference[T]) IsZero() bool {
	return r.id == ""
}

// Payload returns the resolved payload, if any.
func (r Reference[T]) Payload() (*T, bool) {
	return r.payload, r.payload != nil
}

// IsResolved reports whether a payload is attached.
func (r Reference[T]) IsResolved() bool {
	return r.payload != nil
}

// HasResolver reports whether a lazy resolver is attached.
func (r Reference[T]) HasResolver() bool {
	return r.resolver != nil
}

// Resolve returns the attached payload, or runs the lazy resolver. It
// returns nil without error when neither is present.
func (r Reference[T]) Resolve(ctx context.Context) (*T, error) {
	if r.payload != nil {
		return r.payload, nil
	}
	if r.resolver != nil {
		return r.resolver(ctx)
	}
	return nil, nil
}

// WithPayload returns a copy carrying payload.
func (r Reference[T]) WithPayload(payload *T) Reference[T] {
	r.payload = payload
	return r
}

// richer picks between two references with the same id. A resolved payload
// beats an id-only entry; between two payloads the later one applied wins.
func richer[T any](existing, candidate Reference[T]) Reference[T] {
	switch {
	case candidate.payload != nil:
		return candidate
	case existing.payload != nil:
		return existing
	case candidate.resolver != nil && existing.resolver == nil:
		return candidate
	default:
		return existing
	}
}

// RefSet is an immutable set of references keyed by id.
type RefSet[T any] struct {
	refs []Reference[T]
}

// NewRefSet collapses references sharing an id and drops id-less ones.
func NewRefSet[T any](refs ...Reference[T]) RefSet[T] {
	return RefSet[T]{}.With(refs...)
}

// With returns a set that also holds refs.
func (s RefSet[T]) With(refs ...Reference[T]) RefSet[T] {
	if len(refs) == 0 {
		return s
	}
	merged := slices.Clone(s.refs)
	for _, ref := range refs {
		if ref.IsZero() {
			continue
		}
		if idx := IndexByIdentity(merged, ref.id); idx >= 0 {
			merged[idx] = richer(merged[idx], ref)
			continue
		}
		merged = append(merged, ref)
	}
	slices.SortFunc(merged, CompareIdentity[Reference[T]])
	return RefSet[T]{refs: merged}
}

// Union returns the id-deduplicated union, applying other after s.
func (s RefSet[T]) Union(other RefSet[T]) RefSet[T] {
	return s.With(other.refs...)
}

// Without returns a set lacking the given id.
func (s RefSet[T]) Without(id string) RefSet[T] {
	idx := IndexByIdentity(s.refs, id)
	if idx < 0 {
		return s
	}
	return RefSet[T]{refs: slices.Delete(slices.Clone(s.refs), idx, idx+1)}
}

func (s RefSet[T]) Len() int {
	return len(s.refs)
}

func (s RefSet[T]) IsEmpty() bool {
	return len(s.refs) == 0
}

// Refs returns the references ordered by id.
func (s RefSet[T]) Refs() []Reference[T] {
	return slices.Clone(s.refs)
}

// IDs returns the member ids in order.
func (s RefSet[T]) IDs() []string {
	ids := make([]string, len(s.refs))
	for i, ref := range s.refs {
		ids[i] = ref.id
	}
	return ids
}

// Get looks up a member by id.
func (s RefSet[T]) Get(id string) (Reference[T], bool) {
	idx := IndexByIdentity(s.refs, id)
	if idx < 0 {
		return Reference[T]{}, false
	}
	return s.refs[idx], true
}

// Contains reports membership by id.
func (s RefSet[T]) Contains(id string) bool {
	return IndexByIdentity(s.refs, id) >= 0
}

// SameMembers compares two sets by id only.
func (s RefSet[T]) SameMembers(other RefSet[T]) bool {
	return slices.EqualFunc(s.refs, other.refs, SameIdentity[Reference[T]])
}
