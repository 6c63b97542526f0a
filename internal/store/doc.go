// Package store persists keyed record collections as a single JSON document.
//
// A Store is parameterized by a Schema describing the collection name, the
// natural key, ordering and the store-managed fields. Every mutation loads the
// whole document into an Arena, edits it in memory and writes it back through
// a temp file and rename. Read failures degrade to an empty document; write
// failures are returned wrapped in ErrWrite.
//
// Operations are serialized inside one process by a mutex. Cross-process
// coordination is opt-in through an advisory lock file (Options.LockFiles).
package store
