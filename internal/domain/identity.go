package domain

import "strings"

// Identified is implemented by every entity whose equality and ordering
// is defined by its id alone: change-sets, tickets, directory entries and
// the references to them.
type Identified interface {
	Identity() string
}

// CompareIdentity orders two entities by id.
func CompareIdentity[T Identified](a, b T) int {
	return strings.Compare(a.Identity(), b.Identity())
}

// SameIdentity reports whether two entities share an id.
func SameIdentity[T Identified](a, b T) bool {
	return a.Identity() == b.Identity()
}

// IndexByIdentity returns the position of the entity with the given id,
// or -1.
func IndexByIdentity[T Identified](items []T, id string) int {
	for i, item := range items {
		if item.Identity() == id {
			return i
		}
	}
	return -1
}
