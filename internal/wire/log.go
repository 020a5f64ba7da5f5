package wire

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spec-kit/ticket-ledger/internal/domain"
)

// maxLineBytes bounds one JSONL record.
const maxLineBytes = 4 << 20

// ReadLog decodes a JSON Lines change-set log. Blank lines are skipped.
// When ticketID is non-empty, records belonging to other tickets are
// ignored; records without ticket_id always belong.
func ReadLog(r io.Reader, ticketID string) ([]domain.ChangeSet, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []domain.ChangeSet
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var record ChangeSet
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, &domain.ValueError{Field: "change-set", Value: string(raw), Reason: err.Error()})
		}
		if ticketID != "" && record.TicketID != "" && record.TicketID != ticketID {
			continue
		}
		cs, err := record.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, cs)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read change-set log: %w", err)
	}
	return out, nil
}

// WriteLog encodes change-sets as JSON Lines.
func WriteLog(w io.Writer, ticketID string, changeSets []domain.ChangeSet) error {
	enc := json.NewEncoder(w)
	for _, cs := range changeSets {
		if err := enc.Encode(FromChangeSet(ticketID, cs)); err != nil {
			return fmt.Errorf("write change-set %s: %w", cs.ID(), err)
		}
	}
	return nil
}
