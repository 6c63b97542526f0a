package delivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"prodledger/internal/ingest"
	"prodledger/internal/reconcile"
)

// HoursPerDay is the length of the hourly series.
const HoursPerDay = ingest.HoursPerDay

// Day is one calendar day of cumulative delivery volumes. It is persisted
// with one hour_NN key per hour.
type Day struct {
	Date      string
	DayOfWeek string
	Hours     [HoursPerDay]int
	Total     int
}

// HourQuantity sets one hour of a day.
type HourQuantity struct {
	Hour     int `json:"hour"`
	Quantity int `json:"quantity"`
}

// DeriveTotal returns the last non-zero hour, scanning from hour 23 back to
// hour 0, or 0 when every hour is zero.
func DeriveTotal(hours [HoursPerDay]int) int {
	for h := HoursPerDay - 1; h >= 0; h-- {
		if hours[h] != 0 {
			return hours[h]
		}
	}
	return 0
}

// HourKey is the JSON key of hour h.
func HourKey(h int) string {
	return fmt.Sprintf("hour_%02d", h)
}

// MarshalJSON writes date, dayOfWeek, hour_00..hour_23 and total in order.
func (d Day) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"date":`)
	if err := writeJSON(&buf, d.Date); err != nil {
		return nil, err
	}
	buf.WriteString(`,"dayOfWeek":`)
	if err := writeJSON(&buf, d.DayOfWeek); err != nil {
		return nil, err
	}
	for h, v := range d.Hours {
		buf.WriteString(`,"`)
		buf.WriteString(HourKey(h))
		buf.WriteString(`":`)
		buf.WriteString(strconv.Itoa(v))
	}
	buf.WriteString(`,"total":`)
	buf.WriteString(strconv.Itoa(d.Total))
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// UnmarshalJSON accepts numbers or numeric strings for hours and total, so
// files written by hand still load.
func (d *Day) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = Day{}
	if v, ok := raw["date"].(string); ok {
		d.Date = v
	}
	if v, ok := raw["dayOfWeek"].(string); ok {
		d.DayOfWeek = v
	}
	for h := range HoursPerDay {
		d.Hours[h] = number(raw[HourKey(h)])
	}
	d.Total = number(raw["total"])
	return nil
}

func number(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		return ingest.CoerceInt(val)
	default:
		return 0
	}
}

// Fields compares the hourly series and total during reconciliation.
var Fields = func() reconcile.FieldSet[Day] {
	fields := make(reconcile.FieldSet[Day], 0, HoursPerDay+1)
	for h := range HoursPerDay {
		fields = append(fields, reconcile.Field[Day]{
			Name: HourKey(h),
			Get:  func(d *Day) any { return d.Hours[h] },
		})
	}
	return append(fields, reconcile.Field[Day]{Name: "total", Get: func(d *Day) any { return d.Total }})
}()

// FromRow converts a parsed CSV row, trusting its total.
func FromRow(row ingest.DeliveryRow) Day {
	return Day{Date: row.Date, DayOfWeek: row.DayOfWeek, Hours: row.Hours, Total: row.Total}
}
