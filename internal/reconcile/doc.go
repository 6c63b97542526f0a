// Package reconcile compares an incoming batch with stored records and applies
// only material changes.
//
// Each record kind supplies an explicit FieldSet; a stored record is updated
// only when one of those fields differs. Records whose compared fields match
// are left untouched, so re-importing the same data never rewrites the file.
package reconcile
