package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spec-kit/ticket-ledger/internal/domain"
)

var created = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

func projection(t *testing.T, statuses ...domain.Status) domain.Projection {
	t.Helper()
	log := []domain.ChangeSet{mustChangeSet(t, domain.ChangeSetParams{
		ID:        "cs-0",
		Timestamp: created,
		Author:    domain.Ref[domain.User]("u-1"),
		Title:     mustText(t, map[string]string{"en": "Heating off", "de": "Heizung aus"}),
	})}
	for i, s := range statuses {
		log = append(log, mustChangeSet(t, domain.ChangeSetParams{
			ID:        "cs-" + string(rune('1'+i)),
			Timestamp: created.Add(time.Duration(i+1) * time.Hour),
			Author:    domain.Ref[domain.User]("u-1"),
			Status:    domain.Some(s),
		}))
	}
	tk, err := domain.NewTicket("t-1", log)
	if err != nil {
		t.Fatal(err)
	}
	return tk.Projection()
}

func mustChangeSet(t *testing.T, p domain.ChangeSetParams) domain.ChangeSet {
	t.Helper()
	cs, err := domain.NewChangeSet(p)
	if err != nil {
		t.Fatal(err)
	}
	return cs
}

func mustText(t *testing.T, entries map[string]string) domain.LocalizedText {
	t.Helper()
	text, err := domain.NewLocalizedText(entries)
	if err != nil {
		t.Fatal(err)
	}
	return text
}

func TestWriter_Age(t *testing.T) {
	now := created.Add(100 * time.Hour)
	w := NewWriter(DefaultConfig(), func() time.Time { return now })

	tests := []struct {
		name     string
		statuses []domain.Status
		want     time.Duration
	}{
		{name: "open ages until now", statuses: []domain.Status{"analysis"}, want: 100 * time.Hour},
		{name: "closed stops at close", statuses: []domain.Status{"analysis", "closed"}, want: 2 * time.Hour},
		{name: "sub-status of closed is terminal", statuses: []domain.Status{"closed.duplicate"}, want: time.Hour},
		{name: "reopened then closed uses last close", statuses: []domain.Status{"closed", "analysis", "closed"}, want: 3 * time.Hour},
		{name: "closed twice in a row keeps first", statuses: []domain.Status{"closed", "closed.fixed"}, want: time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Age(projection(t, tt.statuses...)); got != tt.want {
				t.Errorf("Age() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriter_Write(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Languages = []string{"de"}
	w := NewWriter(cfg, func() time.Time { return created.Add(5 * time.Hour) })

	var buf bytes.Buffer
	if err := w.Write(&buf, []domain.Projection{projection(t, "analysis")}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 || len(rows[1]) != len(Header) {
		t.Fatalf("rows = %v", rows)
	}
	row := rows[1]
	checks := map[int]string{0: "t-1", 1: "Heizung aus", 2: "analysis", 3: "normal", 4: "private", 5: "u-1", 8: "5.00", 9: ""}
	for col, want := range checks {
		if row[col] != want {
			t.Errorf("column %s = %q, want %q", Header[col], row[col], want)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.yaml")
	if err := os.WriteFile(path, []byte("terminal_statuses: [closed, resolved]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !cfg.IsTerminal("resolved.fixed") || cfg.IsTerminal("analysis") {
		t.Errorf("IsTerminal() mismatch for %v", cfg.TerminalStatuses)
	}
	if len(cfg.Languages) != 1 || cfg.Languages[0] != "en" {
		t.Errorf("Languages = %v, want default [en]", cfg.Languages)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("terminal_statuses: [\"on hold\"]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Error("LoadConfig() accepted a malformed status")
	}
}
