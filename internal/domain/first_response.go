package domain

import (
	"cmp"
	"math"
	"strings"
	"time"
)

// FirstResponseMark pins the elapsed time from ticket creation to the first
// official reply on the change-set that recorded it.
type FirstResponseMark struct {
	elapsed     time.Duration
	changeSetID string
}

// NewFirstResponseMark requires a non-negative elapsed time and the id of
// the originating change-set.
func NewFirstResponseMark(elapsed time.Duration, changeSetID string) (FirstResponseMark, error) {
	if elapsed < 0 {
		return FirstResponseMark{}, malformed("first response elapsed", elapsed.String(), "negative duration")
	}
	if strings.TrimSpace(changeSetID) == "" {
		return FirstResponseMark{}, malformed("first response change-set", changeSetID, "missing change-set id")
	}
	return FirstResponseMark{elapsed: elapsed, changeSetID: changeSetID}, nil
}

func (m FirstResponseMark) Elapsed() time.Duration {
	return m.elapsed
}

func (m FirstResponseMark) ChangeSetID() string {
	return m.changeSetID
}

// ElapsedSeconds rounds the elapsed time to whole seconds.
func (m FirstResponseMark) ElapsedSeconds() int64 {
	return int64(math.Round(m.elapsed.Seconds()))
}

// Compare orders by elapsed time, then by change-set id.
func (m FirstResponseMark) Compare(other FirstResponseMark) int {
	if c := cmp.Compare(m.elapsed, other.elapsed); c != 0 {
		return c
	}
	return strings.Compare(m.changeSetID, other.changeSetID)
}

// Equal requires both fields to match.
func (m FirstResponseMark) Equal(other FirstResponseMark) bool {
	return m.elapsed == other.elapsed && m.changeSetID == other.changeSetID
}
