package records

import (
	"strings"
	"time"
	"unicode"
)

// dateFormats is the fixed, ordered list of accepted date layouts.
// Day-first is tried before month-first, so an ambiguous value like
// "03/04/2020" parses as 3 April 2020. This precedence is deliberate and
// matches the documented ingestion contract.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
}

// NormalizeName trims the input, collapses internal whitespace runs to single
// spaces, and title-cases each word. Empty or blank input yields "", which
// callers treat as a missing value.
func NormalizeName(s string) string {
	fields := strings.Fields(s)
	for i, w := range fields {
		fields[i] = titleWord(w)
	}
	return strings.Join(fields, " ")
}

// titleWord upper-cases the first letter of every letter run in w and
// lower-cases the rest, so "mcDONALD-o'brien" becomes "Mcdonald-O'Brien".
func titleWord(w string) string {
	var b strings.Builder
	b.Grow(len(w))
	prevLetter := false
	for _, r := range w {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}

// NormalizePhone strips every non-digit character and prefixes the remainder
// with "+". It returns "" when no digits remain. This is a purely syntactic
// transform; no country-code validation is attempted.
func NormalizePhone(s string) string {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return ""
	}
	return "+" + digits.String()
}

// ParseDate attempts each layout in dateFormats in order and returns the
// first successful parse. Blank or unparseable input returns nil, which is
// not an error: optional dates degrade to absent.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// CleanISBN strips whitespace and hyphens. Blank input yields "".
func CleanISBN(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// IsValidISBN10 reports whether s passes the ISBN-10 checksum: the weighted
// sum position×value over positions 1-10 must be divisible by 11. The final
// position may be the literal 'X' check character representing the value 10.
func IsValidISBN10(s string) bool {
	if len(s) != 10 {
		return false
	}
	total := 0
	for i, ch := range []byte(s) {
		pos := i + 1
		var val int
		switch {
		case ch == 'X' && pos == 10:
			val = 10
		case ch >= '0' && ch <= '9':
			val = int(ch - '0')
		default:
			return false
		}
		total += pos * val
	}
	return total%11 == 0
}

// IsValidISBN13 reports whether s passes the ISBN-13 checksum: digits at even
// 0-indexed positions weigh 1, odd positions weigh 3, and the sum must be
// divisible by 10.
func IsValidISBN13(s string) bool {
	if len(s) != 13 {
		return false
	}
	total := 0
	for i, ch := range []byte(s) {
		if ch < '0' || ch > '9' {
			return false
		}
		n := int(ch - '0')
		if i%2 == 0 {
			total += n
		} else {
			total += 3 * n
		}
	}
	return total%10 == 0
}
