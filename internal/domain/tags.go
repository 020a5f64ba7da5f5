package domain

import (
	"slices"
	"strings"
)

// Tag-like values carried in change-set sets.
type (
	ProblemDescription string
	StatusIndicator    string
	Reaction           string
	FileReference      string
	TicketReference    string
	CommentReference   string
	DataLicense        string
)

// TagSet is an immutable, de-duplicated set of tag-like values. Values are
// kept sorted so insertion order never shows through.
type TagSet[T ~string] struct {
	items []T
}

// NewTagSet de-duplicates values and drops blank ones.
func NewTagSet[T ~string](values ...T) TagSet[T] {
	items := make([]T, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(string(v)) == "" {
			continue
		}
		items = append(items, v)
	}
	if len(items) == 0 {
		return TagSet[T]{}
	}
	slices.Sort(items)
	return TagSet[T]{items: slices.Compact(items)}
}

// Values returns the members in sorted order.
func (s TagSet[T]) Values() []T {
	return slices.Clone(s.items)
}

func (s TagSet[T]) Len() int {
	return len(s.items)
}

func (s TagSet[T]) IsEmpty() bool {
	return len(s.items) == 0
}

// Contains reports membership.
func (s TagSet[T]) Contains(v T) bool {
	_, found := slices.BinarySearch(s.items, v)
	return found
}

// Union returns a set holding the members of both.
func (s TagSet[T]) Union(other TagSet[T]) TagSet[T] {
	return NewTagSet(append(slices.Clone(s.items), other.items...)...)
}

// Equal reports whether both sets hold the same members.
func (s TagSet[T]) Equal(other TagSet[T]) bool {
	return slices.Equal(s.items, other.items)
}
