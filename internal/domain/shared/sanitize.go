package shared

import (
	"reflect"
	"time"
)

// Sanitize strips non-serializable members from arbitrary data before it
// is persisted or crosses a process boundary. Maps and slices are walked
// recursively; any member whose value is a function or channel is dropped.
// Primitives, time.Time values and plain nested structures pass through
// with their structure unchanged.
//
// Sanitize is pure and total: it never panics, and it is idempotent
// (Sanitize(Sanitize(x)) == Sanitize(x)).
func Sanitize(v any) any {
	if v == nil {
		return nil
	}
	if !serializable(v) {
		return nil
	}

	switch val := v.(type) {
	case time.Time, *time.Time:
		return val
	case []byte:
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, member := range val {
			if !serializable(member) {
				continue
			}
			out[k] = Sanitize(member)
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, member := range val {
			if !serializable(member) {
				continue
			}
			out = append(out, Sanitize(member))
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key()
			if key.Kind() != reflect.String {
				continue
			}
			member := iter.Value().Interface()
			if !serializable(member) {
				continue
			}
			out[key.String()] = Sanitize(member)
		}
		return out
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			member := rv.Index(i).Interface()
			if !serializable(member) {
				continue
			}
			out = append(out, Sanitize(member))
		}
		return out
	}

	return v
}

// serializable reports whether a value may survive sanitization.
// Functions and channels are the members the legacy data could carry
// that have no serialized form.
func serializable(v any) bool {
	if v == nil {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return false
	}
	return true
}
