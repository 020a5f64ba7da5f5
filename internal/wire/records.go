// Package wire defines the typed serialization schema shared by storage,
// the HTTP surface and the offline CLI.
package wire

import "time"

// Text is a language tag to text mapping.
type Text map[string]string

// UserRef is a user reference; only ID is required.
type UserRef struct {
	ID             string  `json:"id"`
	Name           string  `json:"name,omitempty"`
	Email          string  `json:"email,omitempty"`
	OrganizationID *string `json:"organization_id,omitempty"`
}

// OrganizationRef is an organization reference; only ID is required.
type OrganizationRef struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// TicketRef is a reference to another ticket. Title is filled only when
// the reference was resolved.
type TicketRef struct {
	ID    string `json:"id"`
	Title Text   `json:"title,omitempty"`
}

// Affected lists the entities a ticket implicates.
type Affected struct {
	Tickets       []TicketRef       `json:"tickets,omitempty"`
	Users         []UserRef         `json:"users,omitempty"`
	Organizations []OrganizationRef `json:"organizations,omitempty"`
}

// FirstResponse is encoded as whole seconds plus the id of the change-set
// that carried the response.
type FirstResponse struct {
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	ChangeSet      string `json:"change_set"`
}

type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ChangeSet is the stored and transmitted form of one change-set. Absent
// optional fields are omitted.
type ChangeSet struct {
	ID                  string         `json:"id"`
	TicketID            string         `json:"ticket_id,omitempty"`
	Timestamp           time.Time      `json:"timestamp"`
	Author              *UserRef       `json:"author,omitempty"`
	Status              *string        `json:"status,omitempty"`
	Title               Text           `json:"title,omitempty"`
	Location            Text           `json:"location,omitempty"`
	AdditionalInfo      Text           `json:"additional_info,omitempty"`
	Comment             Text           `json:"comment,omitempty"`
	Affected            *Affected      `json:"affected,omitempty"`
	Priority            *string        `json:"priority,omitempty"`
	PrivacyLevel        *string        `json:"privacy_level,omitempty"`
	GeoLocation         *GeoLocation   `json:"geo_location,omitempty"`
	ProblemDescriptions []string       `json:"problem_descriptions,omitempty"`
	StatusIndicators    []string       `json:"status_indicators,omitempty"`
	Reactions           []string       `json:"reactions,omitempty"`
	FirstResponse       *FirstResponse `json:"first_response,omitempty"`
	AttachedFiles       []string       `json:"attached_files,omitempty"`
	TicketReferences    []string       `json:"ticket_references,omitempty"`
	CommentReferences   []string       `json:"comment_references,omitempty"`
	DataLicenses        []string       `json:"data_licenses,omitempty"`
	InReplyTo           string         `json:"in_reply_to,omitempty"`
	DataSource          string         `json:"data_source,omitempty"`
}

type StatusEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

type Comment struct {
	ChangeSet string    `json:"change_set"`
	Timestamp time.Time `json:"timestamp"`
	Author    UserRef   `json:"author"`
	Text      Text      `json:"text"`
	InReplyTo string    `json:"in_reply_to,omitempty"`
}

// Linked-data vocabulary of the ticket document.
const (
	TicketContext = "https://schema.org/"
	TicketType    = "Ticket"
)

// Ticket is the projected view of a ticket as a linked-data document.
type Ticket struct {
	Context             string         `json:"@context"`
	Type                string         `json:"@type"`
	ID                  string         `json:"@id"`
	Author              UserRef        `json:"author"`
	Created             time.Time      `json:"created"`
	LastModified        time.Time      `json:"last_modified"`
	Title               Text           `json:"title"`
	Status              StatusEntry    `json:"status"`
	StatusHistory       []StatusEntry  `json:"status_history"`
	Priority            string         `json:"priority"`
	PrivacyLevel        string         `json:"privacy_level"`
	Location            Text           `json:"location,omitempty"`
	GeoLocation         *GeoLocation   `json:"geo_location,omitempty"`
	AdditionalInfo      Text           `json:"additional_info,omitempty"`
	Affected            Affected       `json:"affected"`
	ProblemDescriptions []string       `json:"problem_descriptions,omitempty"`
	StatusIndicators    []string       `json:"status_indicators,omitempty"`
	Reactions           []string       `json:"reactions,omitempty"`
	AttachedFiles       []string       `json:"attached_files,omitempty"`
	TicketReferences    []string       `json:"ticket_references,omitempty"`
	DataLicenses        []string       `json:"data_licenses,omitempty"`
	FirstResponse       *FirstResponse `json:"first_response,omitempty"`
	Comments            []Comment      `json:"comments,omitempty"`
	ChangeSetCount      int            `json:"change_set_count"`
}

// IDsOnly drops resolved payloads from every reference so that the
// document depends only on what the log recorded.
func (t Ticket) IDsOnly() Ticket {
	t.Author = UserRef{ID: t.Author.ID}
	t.Affected = t.Affected.IDsOnly()
	if len(t.Comments) > 0 {
		comments := make([]Comment, len(t.Comments))
		for i, c := range t.Comments {
			c.Author = UserRef{ID: c.Author.ID}
			comments[i] = c
		}
		t.Comments = comments
	}
	return t
}

// IDsOnly drops resolved payloads from every entry.
func (a Affected) IDsOnly() Affected {
	out := Affected{}
	for _, ref := range a.Tickets {
		out.Tickets = append(out.Tickets, TicketRef{ID: ref.ID})
	}
	for _, ref := range a.Users {
		out.Users = append(out.Users, UserRef{ID: ref.ID})
	}
	for _, ref := range a.Organizations {
		out.Organizations = append(out.Organizations, OrganizationRef{ID: ref.ID})
	}
	return out
}
