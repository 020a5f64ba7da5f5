package domain

import "strings"

// Priority enumerates ticket urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRanks = map[Priority]int{
	PriorityLow:    0,
	PriorityNormal: 1,
	PriorityHigh:   2,
	PriorityUrgent: 3,
}

// ParsePriority accepts the priority names case-insensitively.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := priorityRanks[p]; !ok {
		return "", malformed("priority", raw, "unknown priority")
	}
	return p, nil
}

// Rank orders priorities from low to urgent.
func (p Priority) Rank() int {
	return priorityRanks[p]
}

// PrivacyLevel controls who may see a ticket. Only older change-sets carry
// it.
type PrivacyLevel string

const (
	PrivacyPublic   PrivacyLevel = "public"
	PrivacyInternal PrivacyLevel = "internal"
	PrivacyPrivate  PrivacyLevel = "private"
)

// ParsePrivacyLevel accepts the level names case-insensitively.
func ParsePrivacyLevel(raw string) (PrivacyLevel, error) {
	level := PrivacyLevel(strings.ToLower(strings.TrimSpace(raw)))
	switch level {
	case PrivacyPublic, PrivacyInternal, PrivacyPrivate:
		return level, nil
	}
	return "", malformed("privacy level", raw, "unknown privacy level")
}
