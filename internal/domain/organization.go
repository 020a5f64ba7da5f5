package domain

// Organization is a directory entry for a company or unit implicated by a
// ticket.
type Organization struct {
	ID          string
	Name        string
	Description string
}

// Identity implements Identified.
func (o Organization) Identity() string {
	return o.ID
}
