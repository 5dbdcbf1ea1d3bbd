package manifest

import (
	"testing"
)

func TestFormat_RoundTrip(t *testing.T) {
	fields := []Field{
		{Key: "Type", Value: "Library"},
		{Key: "Name", Value: "core"},
		{Key: "Include-Path", Value: "include"},
		{Key: "Uses", Value: "Foo/util"},
		{Key: "Uses", Value: "Bar/base"},
	}

	text, err := Format(fields)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	seq, warnings := Parse(text, "roundtrip.lml")
	if len(warnings) != 0 {
		t.Fatalf("Expected no warnings on reparse, got: %v", warnings)
	}
	parsed := seq.Fields()
	if len(parsed) != len(fields) {
		t.Fatalf("Expected %d fields back, got %d", len(fields), len(parsed))
	}
	for i := range fields {
		if parsed[i] != fields[i] {
			t.Errorf("Field %d: expected %v, got %v", i, fields[i], parsed[i])
		}
	}
}

func TestFormat_EmptyValueRoundTrip(t *testing.T) {
	text, err := Format([]Field{{Key: "Path", Value: ""}})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	seq, warnings := Parse(text, "empty.lml")
	if len(warnings) != 0 {
		t.Fatalf("Expected no warnings, got: %v", warnings)
	}
	fields := seq.Fields()
	if len(fields) != 1 || fields[0].Key != "Path" || fields[0].Value != "" {
		t.Errorf("Expected Path with empty value, got %v", fields)
	}
}

func TestFormat_RejectsUnrepresentableFields(t *testing.T) {
	cases := []struct {
		name  string
		field Field
	}{
		{"empty key", Field{Key: "", Value: "v"}},
		{"newline in value", Field{Key: "Name", Value: "a\nb"}},
		{"separator in key", Field{Key: "Na: me", Value: "v"}},
		{"trailing colon in key", Field{Key: "Name:", Value: "v"}},
		{"untrimmed value", Field{Key: "Name", Value: " v"}},
		{"comment-like key", Field{Key: "#Name", Value: "v"}},
	}
	for _, tc := range cases {
		if _, err := Format([]Field{tc.field}); err == nil {
			t.Errorf("Case %q: expected error", tc.name)
		}
	}
}
