// Package integrity computes tamper-evidence digests over projected
// tickets. The digest covers a canonical CBOR encoding of the ticket
// document, so equal projections always hash equally.
package integrity

import (
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"

	"github.com/spec-kit/ticket-ledger/internal/domain"
	"github.com/spec-kit/ticket-ledger/internal/wire"
)

// Algorithm names a digest function.
type Algorithm string

const (
	AlgorithmBLAKE3  Algorithm = "blake3"
	AlgorithmBLAKE2b Algorithm = "blake2b"
)

// ParseAlgorithm accepts algorithm names case-insensitively. Empty selects
// BLAKE3.
func ParseAlgorithm(raw string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(raw))); a {
	case "":
		return AlgorithmBLAKE3, nil
	case AlgorithmBLAKE3, AlgorithmBLAKE2b:
		return a, nil
	}
	return "", &domain.ValueError{Field: "integrity algorithm", Value: raw, Reason: "want blake3 or blake2b"}
}

// ticketDomainKey is the ASCII name of the hash domain, zero-padded to 32
// bytes. It is used when no secret is configured.
var ticketDomainKey = [32]byte{
	't', 'i', 'c', 'k', 'e', 't', '-', 'l', 'e', 'd', 'g', 'e', 'r', '.',
	'p', 'r', 'o', 'j', 'e', 'c', 't', 'i', 'o', 'n', 0, 0, 0, 0, 0, 0, 0, 0,
}

const keyDerivationContext = "ticket-ledger 2024 projection integrity key"

// Hasher digests projections with a keyed hash. Safe for concurrent use.
type Hasher struct {
	algorithm Algorithm
	key       [32]byte
	encMode   cbor.EncMode
}

// NewHasher builds a hasher for algorithm. A non-empty secret is stretched
// into the 32-byte key with BLAKE3 key derivation.
func NewHasher(algorithm, secret string) (*Hasher, error) {
	algo, err := ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}

	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	opts.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err := opts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("init cbor encoder: %w", err)
	}

	h := &Hasher{algorithm: algo, key: ticketDomainKey, encMode: encMode}
	if secret != "" {
		blake3.DeriveKey(keyDerivationContext, []byte(secret), h.key[:])
	}
	return h, nil
}

func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

// Canonical returns the bytes that Hash digests. Reference payloads are
// excluded; only recorded ids contribute.
func (h *Hasher) Canonical(p domain.Projection) ([]byte, error) {
	doc := wire.FromProjection(p).IDsOnly()
	data, err := h.encMode.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode ticket %s: %w", p.ID, err)
	}
	return data, nil
}

// Hash returns "<algorithm>:<hex digest>". It satisfies domain.HashFunc.
func (h *Hasher) Hash(p domain.Projection) (string, error) {
	data, err := h.Canonical(p)
	if err != nil {
		return "", err
	}
	digest, err := h.newDigest()
	if err != nil {
		return "", err
	}
	digest.Write(data)
	return string(h.algorithm) + ":" + hex.EncodeToString(digest.Sum(nil)), nil
}

func (h *Hasher) newDigest() (hash.Hash, error) {
	switch h.algorithm {
	case AlgorithmBLAKE2b:
		d, err := blake2b.New256(h.key[:])
		if err != nil {
			return nil, fmt.Errorf("init blake2b: %w", err)
		}
		return d, nil
	default:
		d, err := blake3.NewKeyed(h.key[:])
		if err != nil {
			return nil, fmt.Errorf("init blake3: %w", err)
		}
		return d, nil
	}
}

// Verify reports whether p hashes to expected.
func (h *Hasher) Verify(p domain.Projection, expected string) (bool, error) {
	got, err := h.Hash(p)
	if err != nil {
		return false, err
	}
	return got == expected, nil
}
