package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spec-kit/ticket-ledger/internal/auth"
)

const sampleLog = `{"id":"cs-1","ticket_id":"t-1","timestamp":"2024-03-01T09:00:00Z","author":{"id":"u-1"},"title":{"en":"Broken heater"}}

{"id":"cs-x","ticket_id":"t-2","timestamp":"2024-03-01T09:30:00Z","author":{"id":"u-9"},"title":{"en":"Other"}}
{"id":"cs-2","ticket_id":"t-1","timestamp":"2024-03-01T10:00:00Z","author":{"id":"u-2"},"status":"analysis","priority":"high"}
{"id":"cs-3","ticket_id":"t-1","timestamp":"2024-03-02T10:00:00Z","author":{"id":"u-2"},"status":"closed"}
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.jsonl")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(""), &stdout, &stderr)
	return stdout.String(), err
}

func TestRun_ProjectsTicket(t *testing.T) {
	path := writeLog(t, sampleLog)

	out, err := runCmd(t, "--file", path)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	var doc struct {
		ID       string `json:"@id"`
		Priority string `json:"priority"`
		Status   struct {
			Status string `json:"status"`
		} `json:"status"`
		ChangeSetCount int `json:"change_set_count"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if doc.ID != "t-1" || doc.Status.Status != "closed" || doc.Priority != "high" || doc.ChangeSetCount != 3 {
		t.Errorf("projection = %+v", doc)
	}
}

func TestRun_Modes(t *testing.T) {
	path := writeLog(t, sampleLog)

	timeline, err := runCmd(t, "--file", path, "--timeline")
	if err != nil {
		t.Fatal(err)
	}
	want := "2024-03-01T09:00:00Z\tnew\n2024-03-01T10:00:00Z\tanalysis\n2024-03-02T10:00:00Z\tclosed\n"
	if timeline != want {
		t.Errorf("timeline = %q, want %q", timeline, want)
	}

	first, _ := runCmd(t, "--file", path, "--hash")
	second, _ := runCmd(t, "--file", path, "--hash")
	if !strings.HasPrefix(first, "blake3:") || first != second {
		t.Errorf("hash = %q / %q", first, second)
	}
	keyed, _ := runCmd(t, "--file", path, "--hash", "--key", "s3cret")
	if keyed == first {
		t.Error("keyed hash equals unkeyed hash")
	}
	b2, err := runCmd(t, "--file", path, "--hash", "--algorithm", "blake2b")
	if err != nil || !strings.HasPrefix(b2, "blake2b:") {
		t.Errorf("blake2b hash = %q, %v", b2, err)
	}

	csvOut, err := runCmd(t, "--file", path, "--csv")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(csvOut), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "t-1,Broken heater,closed,high") {
		t.Errorf("csv = %q", csvOut)
	}

	other, err := runCmd(t, "--file", path, "--ticket-id", "t-2", "--timeline")
	if err != nil || other != "2024-03-01T09:30:00Z\tnew\n" {
		t.Errorf("t-2 timeline = %q, %v", other, err)
	}
}

func TestRun_Errors(t *testing.T) {
	untitled := writeLog(t, `{"id":"cs-1","ticket_id":"t-1","timestamp":"2024-03-01T09:00:00Z","author":{"id":"u-1"}}`+"\n")
	malformed := writeLog(t, `{"id":"cs-1","timestamp":"2024-03-01T09:00:00Z","author":{"id":"u-1"},"title":{"en":"x"},"priority":"soon"}`+"\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no file", nil, "--file is required"},
		{"missing file", []string{"--file", filepath.Join(t.TempDir(), "absent.jsonl")}, "open change-set log"},
		{"no title", []string{"--file", untitled}, "title is missing"},
		{"malformed line", []string{"--file", malformed}, "line 1"},
		{"bad algorithm", []string{"--file", writeLog(t, sampleLog), "--hash", "--algorithm", "md5"}, "blake3 or blake2b"},
		{"stray argument", []string{"--file", "x", "extra"}, "unexpected argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("run() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	if _, err := runCmd(t, "--help"); err != nil {
		t.Errorf("--help error = %v", err)
	}
}

func TestRun_Token(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "cli-secret")
	t.Setenv("AUTH_JWT_ISSUER", "ticket-ledger")

	out, err := runCmd(t, "token", "--subject", "u-7", "--role", "agent")
	if err != nil {
		t.Fatalf("token error = %v", err)
	}
	claims, err := auth.NewTokenManager("cli-secret", "ticket-ledger", 5).ParseToken(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "u-7" || claims.Role != auth.RoleAgent {
		t.Errorf("claims = %s/%s", claims.Subject, claims.Role)
	}

	rejected := []struct {
		name string
		args []string
	}{
		{"unknown role", []string{"token", "--subject", "u-7", "--role", "admin"}},
		{"missing subject", []string{"token", "--role", "agent"}},
		{"blank subject", []string{"token", "--subject", "  "}},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, tt.args...)
			if err == nil {
				t.Errorf("token error = nil, want rejection")
			}
			if strings.TrimSpace(out) != "" {
				t.Errorf("token printed %q, want nothing", out)
			}
		})
	}
}
