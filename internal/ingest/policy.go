package ingest

import (
	"fmt"
	"strings"
)

// Policy decides what happens to a row when one of its cells fails to parse.
type Policy string

const (
	// PolicySkip drops the row and counts it as skipped.
	PolicySkip Policy = "skip"
	// PolicyDefault substitutes the zero value and keeps the row.
	PolicyDefault Policy = "default"
	// PolicyReject aborts the whole input with a RowError.
	PolicyReject Policy = "reject"
)

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(value))); p {
	case PolicySkip, PolicyDefault, PolicyReject:
		return p, nil
	case "":
		return "", fmt.Errorf("policy is empty")
	default:
		return "", fmt.Errorf("unknown policy %q", value)
	}
}

// RowError locates a cell that could not be parsed.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// cellOutcome is the decision for one cell.
type cellOutcome int

const (
	cellKeep cellOutcome = iota
	cellSkipRow
	cellReject
)

func (p Policy) decide() cellOutcome {
	switch p {
	case PolicySkip:
		return cellSkipRow
	case PolicyReject:
		return cellReject
	default:
		return cellKeep
	}
}

// dateCell parses a date under p. PolicyDefault behaves like PolicySkip since
// a row without a date has no key.
func (p Policy) dateCell(line int, column, cell string) (string, cellOutcome, error) {
	date, err := ParseDate(cell)
	if err == nil {
		return date, cellKeep, nil
	}
	if p == PolicyReject {
		return "", cellReject, &RowError{Line: line, Column: column, Err: err}
	}
	return "", cellSkipRow, err
}

// intCell parses a number under p. A blank cell is 0 regardless of policy.
func (p Policy) intCell(line int, column, cell string) (int, cellOutcome, error) {
	if strings.TrimSpace(cell) == "" {
		return 0, cellKeep, nil
	}
	n, err := ParseInt(cell)
	if err == nil {
		return n, cellKeep, nil
	}
	switch p.decide() {
	case cellReject:
		return 0, cellReject, &RowError{Line: line, Column: column, Err: err}
	case cellSkipRow:
		return 0, cellSkipRow, err
	default:
		return 0, cellKeep, nil
	}
}
