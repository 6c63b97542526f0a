package production

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyCondition rejects a delete that would match every record.
var ErrEmptyCondition = errors.New("delete condition is empty")

// Condition maps JSON field names to accepted values. A record matches when
// every field holds one of its listed values.
type Condition map[string][]string

// Validate rejects empty conditions and fields with no values.
func (c Condition) Validate() error {
	if len(c) == 0 {
		return ErrEmptyCondition
	}
	for name, values := range c {
		if len(values) == 0 {
			return fmt.Errorf("condition field %q has no values", name)
		}
	}
	return nil
}

// Match reports whether r satisfies every field of c. An unknown field name
// matches nothing.
func (c Condition) Match(r *Record) bool {
	for name, values := range c {
		got, ok := r.field(name)
		if !ok {
			return false
		}
		hit := false
		for _, v := range values {
			if v == got {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// ParseCondition reads "field=v1,v2" terms, as given on the command line.
// Repeating a field adds values to its set.
func ParseCondition(terms []string) (Condition, error) {
	c := Condition{}
	for _, term := range terms {
		name, values, ok := strings.Cut(term, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("condition %q must look like field=value", term)
		}
		for _, v := range strings.Split(values, ",") {
			c[name] = append(c[name], strings.TrimSpace(v))
		}
	}
	return c, c.Validate()
}

// String renders c deterministically for logs.
func (c Condition) String() string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + strings.Join(c[name], ",")
	}
	return strings.Join(parts, " ")
}
