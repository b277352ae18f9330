// Package allowlist implements the verified-email allowlist: a fixed list of SHA-256
// hex digests of lower-cased emails, loaded once from config. It is the only identity
// check the service performs; issuing credentials is the identity provider's job.
package allowlist

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Allowlist is an immutable set of SHA-256 digests, compared in constant time.
type Allowlist struct {
	digests map[string]struct{}
}

// New builds an Allowlist from a comma-separated list of lower-case hex SHA-256 digests
// (the VERIFIED_EMAIL_SHA256 env var). Malformed entries are dropped, not fatal: a bad
// allowlist entry should not crash the process, it should just never match.
func New(commaSeparatedDigests string) *Allowlist {
	digests := make(map[string]struct{})
	for _, raw := range strings.Split(commaSeparatedDigests, ",") {
		d := strings.ToLower(strings.TrimSpace(raw))
		if d == "" {
			continue
		}
		if _, err := hex.DecodeString(d); err != nil {
			continue
		}
		digests[d] = struct{}{}
	}
	return &Allowlist{digests: digests}
}

// HashEmail returns the lower-cased, UTF-8 SHA-256 hex digest of email.
func HashEmail(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// IsVerified reports whether email's digest is present in the allowlist. Comparison is
// constant-time per digest to avoid timing side channels on the allowlist contents.
func (a *Allowlist) IsVerified(email string) bool {
	if a == nil || len(a.digests) == 0 {
		return false
	}
	target := []byte(HashEmail(email))
	for d := range a.digests {
		if subtle.ConstantTimeCompare(target, []byte(d)) == 1 {
			return true
		}
	}
	return false
}
