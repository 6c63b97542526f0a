package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseableDate reports a cell that matches no accepted date shape.
var ErrUnparseableDate = errors.New("unparseable date")

// DateLayout is the canonical date form.
const DateLayout = "2006-01-02"

var (
	yearFirst = regexp.MustCompile(`^(\d{4})[./-](\d{1,2})[./-](\d{1,2})\.?$`)
	yearLast  = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{2}|\d{4})$`)
)

// ParseDate normalizes Y-M-D (2025.8.1, 2025/08/01, 2025-8-1.) and M-D-Y
// (8/1/25, 8-1-2025) spellings to YYYY-MM-DD. Two-digit years are read as
// 20YY. Full-width digits and separators are accepted. Out-of-range parts
// and days missing from the calendar are rejected, so 2025/13/01 and
// 2025/2/30 both return ErrUnparseableDate.
func ParseDate(s string) (string, error) {
	trimmed := narrowNumeric(strings.TrimSpace(s))

	var year, month, day string
	if m := yearFirst.FindStringSubmatch(trimmed); m != nil {
		year, month, day = m[1], m[2], m[3]
	} else if m := yearLast.FindStringSubmatch(trimmed); m != nil {
		month, day, year = m[1], m[2], m[3]
		if len(year) == 2 {
			year = "20" + year
		}
	} else {
		return "", fmt.Errorf("%w: %q", ErrUnparseableDate, s)
	}

	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return "", fmt.Errorf("%w: %q out of range", ErrUnparseableDate, s)
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(mo) || t.Day() != d {
		return "", fmt.Errorf("%w: %q is not a calendar day", ErrUnparseableDate, s)
	}
	return t.Format(DateLayout), nil
}

// Weekday returns the label for a canonical date using labels ordered from
// Sunday. It returns "" when the date does not parse or labels are incomplete.
func Weekday(date string, labels []string) string {
	if len(labels) != 7 {
		return ""
	}
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	return labels[int(t.Weekday())]
}
