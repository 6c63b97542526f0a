// Package preflight provides readiness checks for the filesystem paths and
// sources prodledger depends on.
//
// The CLI "check" command runs RunAll and prints one line per result. Each
// check is gated by its config toggle; disabled features are skipped.
package preflight
