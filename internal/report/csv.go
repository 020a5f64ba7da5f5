// Package report flattens projected tickets into CSV rows.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spec-kit/ticket-ledger/internal/domain"
)

// Header lists the CSV columns in order.
var Header = []string{
	"id", "title", "status", "priority", "privacy", "author",
	"created", "last_modified", "age_hours", "first_response_seconds",
	"affected_tickets", "affected_users", "affected_organizations", "location",
}

// Writer renders projections as CSV.
type Writer struct {
	cfg Config
	now func() time.Time
}

// NewWriter returns a Writer. A nil now uses time.Now.
func NewWriter(cfg Config, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{cfg: cfg, now: now}
}

// Write emits the header followed by one row per view.
func (w *Writer) Write(out io.Writer, views []domain.Projection) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, v := range views {
		if err := cw.Write(w.Row(v)); err != nil {
			return fmt.Errorf("write csv row %s: %w", v.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row flattens one projection.
func (w *Writer) Row(v domain.Projection) []string {
	firstResponse := ""
	if mark, ok := v.FirstResponse.Get(); ok {
		firstResponse = strconv.FormatInt(mark.ElapsedSeconds(), 10)
	}
	return []string{
		v.ID,
		v.Title.Best(w.cfg.Languages...),
		v.Status.Status.String(),
		string(v.Priority),
		string(v.PrivacyLevel),
		v.Author.ID(),
		v.Created.UTC().Format(time.RFC3339),
		v.LastModified.UTC().Format(time.RFC3339),
		strconv.FormatFloat(w.Age(v).Hours(), 'f', 2, 64),
		firstResponse,
		strconv.Itoa(v.Affected.Tickets().Len()),
		strconv.Itoa(v.Affected.Users().Len()),
		strconv.Itoa(v.Affected.Organizations().Len()),
		v.Location.Best(w.cfg.Languages...),
	}
}

// Age measures from creation to the last move into a terminal status. A
// ticket not currently terminal ages until now.
func (w *Writer) Age(v domain.Projection) time.Duration {
	end := w.now()
	if w.cfg.IsTerminal(v.Status.Status) {
		if closedAt, ok := w.closedAt(v.StatusHistory); ok {
			end = closedAt
		}
	}
	if end.Before(v.Created) {
		return 0
	}
	return end.Sub(v.Created)
}

func (w *Writer) closedAt(history []domain.StatusEntry) (time.Time, bool) {
	var (
		at       time.Time
		found    bool
		terminal bool
	)
	for _, entry := range history {
		now := w.cfg.IsTerminal(entry.Status)
		if now && !terminal {
			at, found = entry.Timestamp, true
		}
		terminal = now
	}
	return at, found
}
