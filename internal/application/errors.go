package application

import "sort"

// ErrorMap holds at most one message per field. A field without an entry
// is valid so far.
type ErrorMap map[Field]string

// Has reports whether f has an error.
func (m ErrorMap) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Get returns the message for f, or "".
func (m ErrorMap) Get(f Field) string {
	return m[f]
}

// Empty reports whether no field has an error.
func (m ErrorMap) Empty() bool {
	return len(m) == 0
}

// Clear returns a copy of m without f.
func (m ErrorMap) Clear(f Field) ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		if k != f {
			out[k] = v
		}
	}
	return out
}

// Fields returns the fields with errors in form order.
func (m ErrorMap) Fields() []Field {
	out := make([]Field, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].position() < out[j].position() })
	return out
}
