// Package api is the facade the CLI drives. Service owns the production and
// delivery stores, the import journal and the logger, and exposes one method
// per user-facing operation.
//
// # Imports
//
// ImportProductionWorkbook, ImportProductionSheet and ImportProductionCSV read
// a grid from their source, parse it with the configured layout and policies,
// and reconcile the rows into the production store. ImportDeliveryCSV
// overwrites delivery days from a CSV export. Each import is journaled; a
// journal failure is logged and never fails the import.
//
// # Errors
//
// Write failures surface as store.ErrWrite. Per-record problems are reported in
// the result and leave the rest of the batch applied. ErrSheetsDisabled is
// returned when the Google Sheets source is requested without being enabled.
package api
