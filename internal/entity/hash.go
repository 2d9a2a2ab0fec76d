package entity

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identifiers.
// Version suffix enables future algorithm migration.
const (
	DomainKey   = "standin/key/v1"
	DomainTrace = "standin/trace/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// KeyHash computes a fixed-width digest of a Key for use as a journal row
// identifier. Stable across processes given the same key parts.
func KeyHash(k Key) string {
	return hashWithDomain(DomainKey, []byte(k))
}

// TraceHash computes a digest of a canonical trace snapshot, used by the
// harness to label golden traces.
func TraceHash(canonical []byte) string {
	return hashWithDomain(DomainTrace, canonical)
}
