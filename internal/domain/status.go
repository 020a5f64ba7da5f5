package domain

import "strings"

// Status is an open, dot-segmented hierarchical token such as
// "analysis.waiting-for-parts". Any status may follow any other.
type Status string

const (
	// StatusNew is in effect before any change-set specifies a status.
	StatusNew Status = "new"
	// StatusClosed is the conventional terminal status used by reporting.
	StatusClosed Status = "closed"
)

const statusSeparator = "."

// ParseStatus lowercases raw and checks that every segment is non-empty
// and made of letters, digits, '-' or '_'.
func ParseStatus(raw string) (Status, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	if token == "" {
		return "", malformed("status", raw, "empty status")
	}
	for _, segment := range strings.Split(token, statusSeparator) {
		if segment == "" {
			return "", malformed("status", raw, "empty segment")
		}
		for _, r := range segment {
			if !isStatusRune(r) {
				return "", malformed("status", raw, "invalid character "+string(r))
			}
		}
	}
	return Status(token), nil
}

func isStatusRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_':
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Segments splits the status into its hierarchy levels.
func (s Status) Segments() []string {
	if s == "" {
		return nil
	}
	return strings.Split(string(s), statusSeparator)
}

// Parent returns the enclosing status, if any.
func (s Status) Parent() (Status, bool) {
	idx := strings.LastIndex(string(s), statusSeparator)
	if idx < 0 {
		return "", false
	}
	return s[:idx], true
}

// Within reports whether s equals ancestor or lies below it.
func (s Status) Within(ancestor Status) bool {
	if s == ancestor {
		return true
	}
	return strings.HasPrefix(string(s), string(ancestor)+statusSeparator)
}
