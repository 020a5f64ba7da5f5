package domain

// User is a directory entry for a person who authors change-sets or is
// affected by a ticket. The directory itself lives outside the core.
type User struct {
	ID             string
	Name           string
	Email          string
	OrganizationID *string
}

// Identity implements Identified.
func (u User) Identity() string {
	return u.ID
}
