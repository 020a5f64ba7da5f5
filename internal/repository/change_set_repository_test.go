package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/spec-kit/ticket-ledger/internal/domain"
)

func TestPayloadCodec(t *testing.T) {
	cs, err := domain.NewChangeSet(domain.ChangeSetParams{
		ID:        "cs-1",
		Timestamp: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
		Author:    domain.Ref[domain.User]("u-1"),
		Status:    domain.Some(domain.Status("analysis")),
		Title:     domain.Text("en", "Boiler"),
	})
	if err != nil {
		t.Fatal(err)
	}
	payload, err := encodePayload(cs)
	if err != nil {
		t.Fatalf("encodePayload() error = %v", err)
	}
	decoded, err := decodePayload(payload)
	if err != nil {
		t.Fatalf("decodePayload() error = %v", err)
	}
	if decoded.ID() != "cs-1" || !decoded.Timestamp().Equal(cs.Timestamp()) {
		t.Errorf("decoded = %s@%v, want cs-1@%v", decoded.ID(), decoded.Timestamp(), cs.Timestamp())
	}
	if s, _ := decoded.Status().Get(); s != "analysis" {
		t.Errorf("decoded status = %q, want analysis", s)
	}
}

func TestDecodePayload_Malformed(t *testing.T) {
	if _, err := decodePayload([]byte(`{"id":`)); !errors.Is(err, domain.ErrMalformedValue) {
		t.Errorf("decodePayload() error = %v, want %v", err, domain.ErrMalformedValue)
	}
}
