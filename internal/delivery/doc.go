// Package delivery stores hourly cumulative delivery volumes, one record per
// calendar day.
//
// Every edit recomputes the day's total from its hours. Bulk loads (CSV
// import and ReplaceAll) trust the total they are given and overwrite whole
// days.
package delivery
