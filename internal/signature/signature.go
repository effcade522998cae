// Package signature canonicalizes SQL text into a stable fingerprint used to
// match queries against catalog entries.
//
// The fingerprint is a pure function of the statement text: engine placement,
// target database, and tenant never participate in it. Two statements that
// differ only in case, insignificant whitespace, a trailing semicolon, or the
// presence of the engine hint comment share a signature.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	hintRe       = regexp.MustCompile(`(?i)/\*\+\s*engine=olap\s*\*/`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize returns the canonical form of a statement: hint comments
// stripped, lowercased, whitespace collapsed, trailing semicolons removed.
func Normalize(sqlText string) string {
	normalized := hintRe.ReplaceAllString(sqlText, " ")
	normalized = strings.ToLower(normalized)
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)
	normalized = strings.TrimRight(normalized, "; ")
	return normalized
}

// Of returns the signature of a statement: the hex-encoded SHA-256 of its
// normalized form. Deterministic and total.
func Of(sqlText string) string {
	sum := sha256.Sum256([]byte(Normalize(sqlText)))
	return hex.EncodeToString(sum[:])
}
