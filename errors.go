package psw

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError collects the invalid fields of an input, keyed by field name.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var b strings.Builder
	b.WriteString("invalid input:")
	for i, f := range fields {
		if i > 0 {
			b.WriteString(";")
		}
		fmt.Fprintf(&b, " %s: %s", f, v[f])
	}
	return b.String()
}

// Add records an error for field. Only the first error of a field is kept.
func (v ValidationError) Add(field, format string, args ...any) {
	if _, exists := v[field]; exists {
		return
	}
	v[field] = fmt.Sprintf(format, args...)
}

// Err returns nil when no error was recorded.
func (v ValidationError) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
