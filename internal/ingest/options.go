package ingest

import (
	"log/slog"
	"strconv"
	"strings"

	"prodledger/internal/logging"
)

// Options control how rows are decoded and what happens to bad cells.
type Options struct {
	// Encoding is utf-8 (default) or shift_jis.
	Encoding string
	// Delimiter overrides sniffing when non-zero.
	Delimiter rune
	// InvalidDate is skip (default) or reject.
	InvalidDate Policy
	// InvalidNumber is default (0, the default), skip or reject.
	InvalidNumber Policy
	// WeekdayLabels derive a missing day-of-week, Sunday first.
	WeekdayLabels []string
	Logger        *slog.Logger
}

// DefaultWeekdayLabels are used when Options.WeekdayLabels is empty.
var DefaultWeekdayLabels = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func (o Options) withDefaults() Options {
	if o.InvalidDate == "" {
		o.InvalidDate = PolicySkip
	}
	if o.InvalidNumber == "" {
		o.InvalidNumber = PolicyDefault
	}
	if len(o.WeekdayLabels) != 7 {
		o.WeekdayLabels = DefaultWeekdayLabels
	}
	o.Logger = logging.NewComponentLogger(o.Logger, "ingest")
	return o
}

// Issue records why a row was skipped.
type Issue struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (i Issue) String() string {
	return "line " + strconv.Itoa(i.Line) + ": " + i.Reason
}

type skipTracker struct {
	logger  *slog.Logger
	skipped int
	issues  []Issue
}

func (s *skipTracker) skip(line int, err error) {
	s.skipped++
	reason := "invalid cell"
	if err != nil {
		reason = err.Error()
	}
	s.issues = append(s.issues, Issue{Line: line, Reason: reason})
	s.logger.Debug("row skipped",
		logging.String(logging.FieldEventType, "row_skipped"),
		logging.Int("line", line),
		logging.String("reason", reason))
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
