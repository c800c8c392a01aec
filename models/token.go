package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Token strings: advance tokens are positional (A1-004 means session 1,
// slot 3), walk-in tokens carry the counter-derived number (W1-105).
// Classic clinics keep a separate zero-padded running number alongside.

var tokenPattern = regexp.MustCompile(`^[AW]([1-9][0-9]*)-([0-9]{3,})$`)

// FormatAdvanceToken renders "A{sessionIndex+1}-{numericToken:03}".
func FormatAdvanceToken(sessionIndex, numericToken int) string {
	return fmt.Sprintf("A%d-%03d", sessionIndex+1, numericToken)
}

// FormatWalkInToken renders "W{sessionIndex+1}-{numericToken:03}".
func FormatWalkInToken(sessionIndex, numericToken int) string {
	return fmt.Sprintf("W%d-%03d", sessionIndex+1, numericToken)
}

// FormatClassicToken renders the per-session running number, zero-padded to
// three digits.
func FormatClassicToken(n int64) string {
	return fmt.Sprintf("%03d", n)
}

// ValidToken reports whether s is a well-formed A/W token.
func ValidToken(s string) bool {
	return tokenPattern.MatchString(s)
}

// TokenSession extracts the 1-based session number from a token string,
// 0 when the token is malformed.
func TokenSession(s string) int {
	m := tokenPattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	var n int
	fmt.Sscanf(m[1], "%d", &n)
	return n
}

// DisplayToken applies the token-visibility policy: advanced clinics always
// show the formatted token; classic clinics show the running classic number
// when one exists (and is not a stray A/W token), otherwise fall back to the
// walk-in token, otherwise show nothing.
func DisplayToken(a *Appointment, mode TokenMode) string {
	if mode != TokenModeClassic {
		return a.TokenNumber
	}
	ct := strings.TrimSpace(a.ClassicTokenNumber)
	if ct != "" && !strings.HasPrefix(ct, "A") && !strings.HasPrefix(ct, "W") {
		return ct
	}
	if a.IsWalkIn() && a.TokenNumber != "" {
		return a.TokenNumber
	}
	return ""
}
