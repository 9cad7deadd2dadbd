// Package credential classifies login identifiers and scores passwords.
// Every function is total: any string, including the empty one, yields a
// result and nothing panics.
package credential

import (
	"regexp"
	"strings"
	"unicode"
)

// Kind is the classification of a login identifier
type Kind string

const (
	KindEmail   Kind = "email"
	KindPhone   Kind = "phone"
	KindInvalid Kind = "invalid"
)

// Result is the outcome of Classify. Normalized holds the trimmed email,
// or the phone number with spaces, hyphens and parentheses removed.
type Result struct {
	Kind       Kind   `json:"kind"`
	Normalized string `json:"normalized,omitempty"`
}

// PasswordSpecials is the set of characters counted as special in passwords
const PasswordSpecials = "@$!%*?&"

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

	phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// Classify decides whether s is an email address, a phone number or neither
func Classify(s string) Result {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Result{Kind: KindInvalid}
	}

	if emailPattern.MatchString(trimmed) {
		return Result{Kind: KindEmail, Normalized: trimmed}
	}

	if phone := NormalizePhone(trimmed); phonePattern.MatchString(phone) {
		return Result{Kind: KindPhone, Normalized: phone}
	}

	return Result{Kind: KindInvalid}
}

// IsEmail reports whether s has the local@domain.tld shape
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// IsPhone reports whether s is an E.164-like number once separators are removed
func IsPhone(s string) bool {
	return phonePattern.MatchString(NormalizePhone(s))
}

// NormalizePhone strips whitespace, hyphens and parentheses
func NormalizePhone(s string) string {
	return phoneSeparators.Replace(strings.TrimSpace(s))
}

// ValidZIP reports whether s is a 5 digit or ZIP+4 postal code
func ValidZIP(s string) bool {
	return zipPattern.MatchString(s)
}

type passwordClasses struct {
	lower, upper, digit, special bool
}

func classify(password string) passwordClasses {
	var c passwordClasses
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsDigit(r):
			c.digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			c.special = true
		}
	}
	return c
}

// PasswordStrength scores a password from 0 to 100
func PasswordStrength(password string) float64 {
	var score float64
	if len(password) >= 8 {
		score += 25
	}

	c := classify(password)
	if c.lower {
		score += 25
	}
	if c.upper {
		score += 25
	}
	if c.digit {
		score += 12.5
	}
	if c.special {
		score += 12.5
	}
	return score
}

// StrengthLabel buckets a strength score for display
func StrengthLabel(score float64) string {
	switch {
	case score < 50:
		return "weak"
	case score < 75:
		return "medium"
	default:
		return "strong"
	}
}

// StrongPassword requires at least 8 characters mixing lowercase,
// uppercase, a digit and one of PasswordSpecials
func StrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	c := classify(password)
	return c.lower && c.upper && c.digit && c.special
}
