package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainCompiledQuery = "jcrq/compiled/v1"
	DomainQueryText     = "jcrq/text/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes a stable identity for a compiled query from its
// canonical JSON form. Two compilations with equal fingerprints issue the
// same statement with the same binds, so execution layers may use it as a
// statement-cache key.
func Fingerprint(compiled IRObject) (string, error) {
	canonical, err := MarshalCanonical(compiled)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCompiledQuery, canonical), nil
}

// TextHash identifies raw query text after NFC normalization.
func TextHash(syntax, text string) (string, error) {
	canonical, err := MarshalCanonical(IRObject{
		"syntax": IRString(syntax),
		"text":   IRString(text),
	})
	if err != nil {
		return "", fmt.Errorf("TextHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainQueryText, canonical), nil
}
