// Package journal records every import and reconcile run in a SQLite ledger.
//
// A run is opened with Begin and closed with Finish, which stores the counts
// and per-record error messages. The journal is advisory: callers log its
// failures and carry on with the import itself.
package journal
