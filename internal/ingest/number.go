package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidNumber reports a cell with no digits to parse.
var ErrInvalidNumber = errors.New("invalid number")

// ParseInt keeps only the digits of s, plus a leading minus sign, and parses
// the result. "1,234" is 1234 and "¥-50" is -50. Full-width digits count as
// digits.
func ParseInt(s string) (int, error) {
	trimmed := narrowNumeric(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" || digits == "-" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidNumber, s, err)
	}
	return n, nil
}

// CoerceInt applies the default policy: anything unparseable is 0.
func CoerceInt(s string) int {
	n, err := ParseInt(s)
	if err != nil {
		return 0
	}
	return n
}
