package manifest

import "fmt"

// Field is a single (key, value) pair read from a manifest file.
// Keys are case-sensitive; values are opaque strings with surrounding
// whitespace already stripped by the parser.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FieldSequence is an ordered multi-map of fields. It preserves both the
// file order of every field and the first-seen order of distinct keys.
type FieldSequence struct {
	fields []Field
	byKey  map[string][]int
	keys   []string
}

// NewFieldSequence builds a sequence from fields in file order.
func NewFieldSequence(fields []Field) *FieldSequence {
	s := &FieldSequence{
		byKey: make(map[string][]int),
	}
	for _, f := range fields {
		s.Append(f)
	}
	return s
}

// Append adds a field at the end of the sequence.
func (s *FieldSequence) Append(f Field) {
	if s.byKey == nil {
		s.byKey = make(map[string][]int)
	}
	if _, seen := s.byKey[f.Key]; !seen {
		s.keys = append(s.keys, f.Key)
	}
	s.byKey[f.Key] = append(s.byKey[f.Key], len(s.fields))
	s.fields = append(s.fields, f)
}

// Len returns the total number of fields.
func (s *FieldSequence) Len() int {
	return len(s.fields)
}

// Fields returns all fields in file order. The returned slice must not be
// mutated.
func (s *FieldSequence) Fields() []Field {
	return s.fields
}

// Keys returns the distinct keys in first-seen order.
func (s *FieldSequence) Keys() []string {
	return s.keys
}

// Count returns the number of occurrences of key.
func (s *FieldSequence) Count(key string) int {
	return len(s.byKey[key])
}

// ForKey returns every field with the given key, in file order.
func (s *FieldSequence) ForKey(key string) []Field {
	idxs := s.byKey[key]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]Field, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, s.fields[i])
	}
	return out
}

// Values returns every value for the given key, in file order.
func (s *FieldSequence) Values(key string) []string {
	idxs := s.byKey[key]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]string, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, s.fields[i].Value)
	}
	return out
}

// AtMostOne returns the value for key if it occurs zero or one times.
// A repeated key is a CardinalityError.
func (s *FieldSequence) AtMostOne(key string) (string, bool, error) {
	idxs := s.byKey[key]
	switch len(idxs) {
	case 0:
		return "", false, nil
	case 1:
		return s.fields[idxs[0]].Value, true, nil
	default:
		return "", false, &CardinalityError{Key: key, Count: len(idxs)}
	}
}

// ExactlyOne returns the value for key, which must occur exactly once.
func (s *FieldSequence) ExactlyOne(key string) (string, error) {
	v, ok, err := s.AtMostOne(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &CardinalityError{Key: key, Count: 0}
	}
	return v, nil
}

// CardinalityError reports a required-once field that is missing or repeated.
type CardinalityError struct {
	Key   string
	Count int
}

func (e *CardinalityError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("missing required field %q", e.Key)
	}
	return fmt.Sprintf("field %q provided %d times, expected at most once", e.Key, e.Count)
}

// ExtensionFields returns the fields whose keys carry the X- extension
// prefix. They are opaque data preserved for external tooling.
func (s *FieldSequence) ExtensionFields() []Field {
	var out []Field
	for _, f := range s.fields {
		if len(f.Key) >= 2 && f.Key[:2] == "X-" {
			out = append(out, f)
		}
	}
	return out
}
