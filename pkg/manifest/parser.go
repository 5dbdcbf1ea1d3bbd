package manifest

import (
	"fmt"
	"os"
	"strings"
)

// Warning is a non-fatal issue found while parsing or validating a manifest.
// Warnings are collected and surfaced to the caller; they never change the
// outcome of an otherwise-successful operation.
type Warning struct {
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.File != "" && w.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", w.File, w.Line, w.Message)
	}
	if w.File != "" {
		return fmt.Sprintf("%s: %s", w.File, w.Message)
	}
	return w.Message
}

// ParseLine parses a single manifest line. It returns ok=false for lines
// that carry no field: blank lines and full-line # comments. A line that is
// neither skippable nor a valid "<key>: <value>" pair is a malformed-line
// error; callers skip the line and record a warning.
//
// The separator is one colon followed by one space. A colon may appear
// inside the key verbatim, except as the key's final character; a line whose
// only colon is the last character yields an empty value.
func ParseLine(line string) (Field, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Field{}, false, nil
	}
	if sep := strings.Index(line, ": "); sep >= 0 {
		key := strings.TrimSpace(line[:sep])
		value := strings.TrimSpace(line[sep+2:])
		if key == "" {
			return Field{}, false, fmt.Errorf("malformed line (empty key): %q", line)
		}
		return Field{Key: key, Value: value}, true, nil
	}
	// No "colon space" separator. The line is still valid when its first
	// colon is the final character: the value is empty.
	if sep := strings.Index(line, ":"); sep >= 0 && sep == len(line)-1 {
		key := strings.TrimSpace(line[:sep])
		if key == "" {
			return Field{}, false, fmt.Errorf("malformed line (empty key): %q", line)
		}
		return Field{Key: key, Value: ""}, true, nil
	}
	return Field{}, false, fmt.Errorf("malformed line: %q", line)
}

// Parse parses manifest text into an ordered field sequence. Malformed lines
// are skipped and reported as warnings; parsing never fails wholesale due to
// a single bad line. CRLF line endings are accepted everywhere LF is.
func Parse(text string, filename string) (*FieldSequence, []Warning) {
	seq := NewFieldSequence(nil)
	var warnings []Warning

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		field, ok, err := ParseLine(line)
		if err != nil {
			warnings = append(warnings, Warning{
				File:    filename,
				Line:    i + 1,
				Message: err.Error(),
			})
			continue
		}
		if !ok {
			continue
		}
		seq.Append(field)
	}
	return seq, warnings
}

// ParseBytes parses raw manifest file bytes.
func ParseBytes(data []byte, filename string) (*FieldSequence, []Warning) {
	return Parse(string(data), filename)
}

// ParseFile reads and parses the manifest at path.
func ParseFile(path string) (*FieldSequence, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	seq, warnings := ParseBytes(data, path)
	return seq, warnings, nil
}
