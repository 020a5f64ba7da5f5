package integrity

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/ticket-ledger/internal/domain"
)

func ticket(t *testing.T, title string, author domain.Reference[domain.User]) *domain.Ticket {
	t.Helper()
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	first, err := domain.NewChangeSet(domain.ChangeSetParams{ID: "cs-1", Timestamp: ts, Author: author, Title: domain.Text("en", title)})
	if err != nil {
		t.Fatal(err)
	}
	second, err := domain.NewChangeSet(domain.ChangeSetParams{ID: "cs-2", Timestamp: ts.Add(time.Hour), Author: author, Status: domain.Some(domain.StatusClosed)})
	if err != nil {
		t.Fatal(err)
	}
	tk, err := domain.NewTicket("ticket-1", []domain.ChangeSet{second, first})
	if err != nil {
		t.Fatal(err)
	}
	return tk
}

func TestHasher_Hash(t *testing.T) {
	for _, algo := range []string{"blake3", "BLAKE2b"} {
		t.Run(algo, func(t *testing.T) {
			h, err := NewHasher(algo, "")
			if err != nil {
				t.Fatalf("NewHasher() error = %v", err)
			}
			a := ticket(t, "Elevator stuck", domain.Ref[domain.User]("u-1"))
			b := ticket(t, "Elevator stuck", domain.ResolvedRef("u-1", &domain.User{ID: "u-1", Name: "Alice"}))
			c := ticket(t, "Elevator stopped", domain.Ref[domain.User]("u-1"))

			hashA, err := a.IntegrityHash(h.Hash)
			if err != nil {
				t.Fatalf("IntegrityHash() error = %v", err)
			}
			prefix := strings.ToLower(algo) + ":"
			if !strings.HasPrefix(hashA, prefix) || len(hashA) != len(prefix)+64 {
				t.Errorf("IntegrityHash() = %q, want %s<64 hex>", hashA, prefix)
			}
			if hashB, _ := b.IntegrityHash(h.Hash); hashB != hashA {
				t.Errorf("resolved payload changed hash: %s vs %s", hashB, hashA)
			}
			if hashC, _ := c.IntegrityHash(h.Hash); hashC == hashA {
				t.Error("different titles produced the same hash")
			}
			if ok, err := h.Verify(a.Projection(), hashA); err != nil || !ok {
				t.Errorf("Verify() = %v, %v, want true", ok, err)
			}
		})
	}
}

func TestHasher_KeySeparatesDigests(t *testing.T) {
	tk := ticket(t, "Door sensor", domain.Ref[domain.User]("u-1"))
	plain, _ := NewHasher("blake3", "")
	keyed, _ := NewHasher("blake3", "s3cret")

	a, _ := plain.Hash(tk.Projection())
	b, _ := keyed.Hash(tk.Projection())
	if a == b {
		t.Error("keyed and unkeyed hashers agree")
	}
}

func TestParseAlgorithm(t *testing.T) {
	if a, err := ParseAlgorithm(""); err != nil || a != AlgorithmBLAKE3 {
		t.Errorf("ParseAlgorithm(\"\") = %v, %v", a, err)
	}
	if _, err := ParseAlgorithm("md5"); !errors.Is(err, domain.ErrMalformedValue) {
		t.Errorf("ParseAlgorithm(md5) error = %v", err)
	}
}
