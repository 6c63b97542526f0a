// Package ingest turns loosely formatted delimited text and spreadsheet grids
// into normalized rows.
//
// The building blocks are small and individually testable: SniffDelimiter
// picks the separator from a header line, SplitFields parses quoted fields,
// ParseDate and ParseInt normalize cells and return explicit errors. A Policy
// decides what happens to a row whose cell fails to parse (skip it, default
// the value, or reject the whole input). NewReader decodes UTF-8 (with or
// without BOM) and Shift_JIS input. Full-width digits are narrowed per cell
// by ParseDate and ParseInt; text cells keep their original width.
package ingest
