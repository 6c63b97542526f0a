package ingest

import (
	"fmt"
	"io"
)

// HoursPerDay is the number of hourly columns in a delivery row.
const HoursPerDay = 24

// Column offsets of the delivery text layout.
const (
	deliveryDateCol  = 0
	deliveryDayCol   = 1
	deliveryTotalCol = 2
	deliveryHourCol  = 3
)

// DeliveryRow is one parsed day of delivery volumes.
type DeliveryRow struct {
	Line      int
	Date      string
	DayOfWeek string
	Total     int
	Hours     [HoursPerDay]int
}

// DeliveryParse is the outcome of ParseDeliveryCSV.
type DeliveryParse struct {
	Rows      []DeliveryRow
	Skipped   int
	Issues    []Issue
	Delimiter rune
}

// ParseDeliveryCSV reads a header line followed by rows of date, day of week,
// daily total and hour_00..hour_23. Short rows leave the missing hours at 0 and
// a blank day of week is derived from the date.
func ParseDeliveryCSV(r io.Reader, opts Options) (DeliveryParse, error) {
	opts = opts.withDefaults()
	decoded, err := NewReader(r, opts.Encoding)
	if err != nil {
		return DeliveryParse{}, err
	}
	grid, delim, err := ReadGrid(decoded, opts.Delimiter)
	if err != nil {
		return DeliveryParse{}, err
	}

	tracker := &skipTracker{logger: opts.Logger}
	res := DeliveryParse{Delimiter: delim}
	headerSeen := false

rows:
	for i, row := range grid {
		line := i + 1
		if isBlank(row) {
			continue
		}
		if !headerSeen {
			headerSeen = true
			continue
		}

		date, outcome, err := opts.InvalidDate.dateCell(line, "date", cell(row, deliveryDateCol))
		switch outcome {
		case cellReject:
			return DeliveryParse{}, err
		case cellSkipRow:
			tracker.skip(line, err)
			continue
		}

		out := DeliveryRow{Line: line, Date: date, DayOfWeek: cell(row, deliveryDayCol)}
		if out.DayOfWeek == "" {
			out.DayOfWeek = Weekday(date, opts.WeekdayLabels)
		}

		total, outcome, err := opts.InvalidNumber.intCell(line, "total", cell(row, deliveryTotalCol))
		switch outcome {
		case cellReject:
			return DeliveryParse{}, err
		case cellSkipRow:
			tracker.skip(line, err)
			continue
		}
		out.Total = total

		for h := range HoursPerDay {
			column := fmt.Sprintf("hour_%02d", h)
			v, outcome, err := opts.InvalidNumber.intCell(line, column, cell(row, deliveryHourCol+h))
			switch outcome {
			case cellReject:
				return DeliveryParse{}, err
			case cellSkipRow:
				tracker.skip(line, err)
				continue rows
			}
			out.Hours[h] = v
		}
		res.Rows = append(res.Rows, out)
	}

	res.Skipped = tracker.skipped
	res.Issues = tracker.issues
	return res, nil
}
