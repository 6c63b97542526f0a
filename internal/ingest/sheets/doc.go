// Package sheets reads production grids from xlsx workbooks and Google Sheets.
//
// Both sources return a [][]string grid shaped like the sheet, ready for
// ingest.ParseProductionGrid.
package sheets
