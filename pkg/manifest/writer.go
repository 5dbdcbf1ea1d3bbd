package manifest

import (
	"fmt"
	"io"
	"strings"
)

// checkField rejects fields that would not survive a parse round trip.
func checkField(f Field) error {
	if f.Key == "" {
		return fmt.Errorf("field key must not be empty")
	}
	if strings.ContainsAny(f.Key, "\r\n") || strings.ContainsAny(f.Value, "\r\n") {
		return fmt.Errorf("field %q: embedded line breaks are not representable", f.Key)
	}
	if strings.Contains(f.Key, ": ") {
		return fmt.Errorf("field key %q contains the separator sequence", f.Key)
	}
	if strings.HasSuffix(f.Key, ":") {
		return fmt.Errorf("field key %q must not end with a colon", f.Key)
	}
	if f.Key != strings.TrimSpace(f.Key) || f.Value != strings.TrimSpace(f.Value) {
		return fmt.Errorf("field %q: leading or trailing whitespace is not representable", f.Key)
	}
	if strings.HasPrefix(f.Key, "#") {
		return fmt.Errorf("field key %q would parse as a comment", f.Key)
	}
	return nil
}

// Write serializes fields in file order as "<key>: <value>" lines.
func Write(w io.Writer, fields []Field) error {
	for _, f := range fields {
		if err := checkField(f); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", f.Key, f.Value); err != nil {
			return err
		}
	}
	return nil
}

// Format serializes fields to a string.
func Format(fields []Field) (string, error) {
	var sb strings.Builder
	if err := Write(&sb, fields); err != nil {
		return "", err
	}
	return sb.String(), nil
}
