package fieldcrypt

import (
	"strings"
	"time"
)

// NormalizeSSN strips separators ("123-45-6789" → "123456789") and requires
// exactly 9 digits.
func NormalizeSSN(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 9 {
		return "", &ValidationError{Field: "ssn", Message: "must contain exactly 9 digits"}
	}
	return digits, nil
}

// LastFour returns the trailing four digits of a normalized 9-digit SSN.
// Not an encryption primitive: the digest exists so the last four can be
// displayed and searched without decrypting the full value.
func LastFour(ssnDigits string) (string, error) {
	if len(ssnDigits) != 9 {
		return "", &ValidationError{Field: "ssn", Message: "must contain exactly 9 digits"}
	}
	for _, r := range ssnDigits {
		if r < '0' || r > '9' {
			return "", &ValidationError{Field: "ssn", Message: "must contain only digits"}
		}
	}
	return ssnDigits[5:], nil
}

// NormalizeDOB accepts YYYY-MM-DD or MM/DD/YYYY and returns YYYY-MM-DD.
func NormalizeDOB(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", "01/02/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", &ValidationError{Field: "dob", Message: "must be YYYY-MM-DD or MM/DD/YYYY"}
}
