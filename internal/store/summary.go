package store

import "sort"

// DateSummary is one row of a per-date aggregate view.
type DateSummary struct {
	Date          string `json:"date"`
	Count         int    `json:"count"`
	TotalQuantity int    `json:"totalQuantity"`
}

// GroupByDate sums quantity per date, newest date first.
func GroupByDate[R any](records []R, date func(*R) string, quantity func(*R) int) []DateSummary {
	byDate := make(map[string]*DateSummary)
	for i := range records {
		d := date(&records[i])
		sum, ok := byDate[d]
		if !ok {
			sum = &DateSummary{Date: d}
			byDate[d] = sum
		}
		sum.Count++
		sum.TotalQuantity += quantity(&records[i])
	}

	out := make([]DateSummary, 0, len(byDate))
	for _, sum := range byDate {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}
