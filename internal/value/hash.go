package value

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainValue separates value digests from any other hash over the same bytes.
// The version suffix leaves room for a future encoding change.
const DomainValue = "generic/value/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest computes a content-addressed identity for a value tree.
// Structurally equal trees have equal digests regardless of map iteration order.
func Digest(v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("Digest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainValue, canonical), nil
}

// MustDigest is like Digest but panics on error.
// Use only in tests or when the tree is known to be valid.
func MustDigest(v Value) string {
	d, err := Digest(v)
	if err != nil {
		panic(err)
	}
	return d
}
