package manifest

import (
	"fmt"
	"strings"
)

// Cardinality constrains how often a recognized field may occur.
type Cardinality int

const (
	// Once means the field must occur exactly one time.
	Once Cardinality = iota
	// AtMostOnce means the field may occur zero or one times.
	AtMostOnce
	// Repeated means the field may occur any number of times.
	Repeated
)

// Schema describes the recognized fields of one manifest file type and
// their cardinality. The Type field is implicitly required exactly once in
// every schema and its value must equal TypeName.
type Schema struct {
	// TypeName is the literal value expected in the Type field
	// ("Index", "Package", "Library").
	TypeName string

	// Fields maps recognized keys to their cardinality. Type is added
	// implicitly.
	Fields map[string]Cardinality
}

// The three libman schemas.
var (
	IndexSchema = Schema{
		TypeName: "Index",
		Fields: map[string]Cardinality{
			"Package": Repeated,
		},
	}

	PackageSchema = Schema{
		TypeName: "Package",
		Fields: map[string]Cardinality{
			"Name":      AtMostOnce,
			"Namespace": Once,
			"Requires":  Repeated,
			"Library":   Repeated,
		},
	}

	LibrarySchema = Schema{
		TypeName: "Library",
		Fields: map[string]Cardinality{
			"Name":                Once,
			"Path":                AtMostOnce,
			"Include-Path":        Repeated,
			"Preprocessor-Define": Repeated,
			"Uses":                Repeated,
			"Links":               Repeated,
			"Special-Uses":        Repeated,
		},
	}
)

// Validate checks the field sequence against the schema. Cardinality
// violations of required-once and at-most-once fields are hard errors naming
// the violated field. Unrecognized keys without the X- extension prefix and
// Type value mismatches are warnings; downstream consumers may still proceed
// using only the recognized fields.
func (s Schema) Validate(fields *FieldSequence, file string) ([]Warning, error) {
	var warnings []Warning

	typeValue, err := fields.ExactlyOne("Type")
	if err != nil {
		return warnings, fmt.Errorf("%s: %w", file, err)
	}
	if typeValue != s.TypeName {
		warnings = append(warnings, Warning{
			File:    file,
			Message: fmt.Sprintf("Type is %q, expected %q", typeValue, s.TypeName),
		})
	}

	for key, card := range s.Fields {
		n := fields.Count(key)
		switch card {
		case Once:
			if n != 1 {
				return warnings, fmt.Errorf("%s: %w", file, &CardinalityError{Key: key, Count: n})
			}
		case AtMostOnce:
			if n > 1 {
				return warnings, fmt.Errorf("%s: %w", file, &CardinalityError{Key: key, Count: n})
			}
		}
	}

	for _, key := range fields.Keys() {
		if key == "Type" {
			continue
		}
		if _, known := s.Fields[key]; known {
			continue
		}
		if strings.HasPrefix(key, "X-") {
			// Opaque extension data, preserved but not interpreted.
			continue
		}
		warnings = append(warnings, Warning{
			File:    file,
			Message: fmt.Sprintf("unrecognized field %q in %s file", key, s.TypeName),
		})
	}

	return warnings, nil
}
