// Package main hosts the prodledger CLI entrypoint and command graph.
//
// The Cobra-based command tree reads and edits the production and delivery
// stores, runs spreadsheet and CSV imports, lists the import journal, and
// scaffolds configuration. It centralizes configuration resolution and
// logging setup so subcommands only translate flags into api.Service calls
// and render the result as a table or, with --json, as JSON.
package main
