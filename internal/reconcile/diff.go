package reconcile

// Field names one compared value of R. Get must return a comparable value.
type Field[R any] struct {
	Name string
	Get  func(*R) any
}

// FieldSet is the ordered list of fields whose change makes a record updated.
type FieldSet[R any] []Field[R]

// Names returns the field names in order.
func (fs FieldSet[R]) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// Diff returns the names of fields that differ between a and b. Values of
// different dynamic types always differ: "5" is not 5.
func Diff[R any](a, b *R, fields FieldSet[R]) []string {
	var changed []string
	for _, f := range fields {
		if f.Get(a) != f.Get(b) {
			changed = append(changed, f.Name)
		}
	}
	return changed
}
