// Package export serializes package descriptions into libman manifest
// trees: one .lmp per package, one .lml per library, and an index tying
// them together. It validates descriptors before writing; the engine's job
// ends at producing schema-conformant files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/openlibman/openlibman/pkg/manifest"
)

// generatedHeader marks emitted files as machine-written.
const generatedHeader = "# Generated by lman. DO NOT EDIT.\n"

// defineRe matches "IDENT" or "IDENT=VALUE" preprocessor definitions.
var defineRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(=.*)?$`)

// LibraryExport describes one library to serialize.
type LibraryExport struct {
	Name        string   `yaml:"name" validate:"required"`
	Linkable    string   `yaml:"linkable,omitempty"`
	IncludeDirs []string `yaml:"includeDirs,omitempty"`
	Defines     []string `yaml:"defines,omitempty"`
	Uses        []string `yaml:"uses,omitempty"`
	Links       []string `yaml:"links,omitempty"`
	SpecialUses []string `yaml:"specialUses,omitempty"`
}

// PackageExport describes one package to serialize.
type PackageExport struct {
	Name      string          `yaml:"name" validate:"required"`
	Namespace string          `yaml:"namespace" validate:"required"`
	Requires  []string        `yaml:"requires,omitempty"`
	Libraries []LibraryExport `yaml:"libraries,omitempty" validate:"dive"`
}

// IndexExport describes a whole manifest tree.
type IndexExport struct {
	Packages []PackageExport `yaml:"packages" validate:"dive"`
}

// Exporter validates and writes manifest trees.
type Exporter struct {
	validate *validator.Validate
	log      zerolog.Logger
}

// NewExporter creates an exporter.
func NewExporter(log zerolog.Logger) *Exporter {
	return &Exporter{
		validate: validator.New(),
		log:      log.With().Str("component", "exporter").Logger(),
	}
}

// Validate checks an export description without writing anything:
// struct-level requirements, reference syntax, and define syntax.
func (e *Exporter) Validate(ix IndexExport) error {
	if err := e.validate.Struct(ix); err != nil {
		return fmt.Errorf("invalid export description: %w", err)
	}
	seen := make(map[string]bool)
	for _, pkg := range ix.Packages {
		if seen[pkg.Name] {
			return fmt.Errorf("package name %q exported more than once", pkg.Name)
		}
		seen[pkg.Name] = true
		for _, lib := range pkg.Libraries {
			for _, def := range lib.Defines {
				if !defineRe.MatchString(def) {
					return fmt.Errorf("library %s/%s: invalid define %q", pkg.Namespace, lib.Name, def)
				}
			}
			for _, ref := range append(append([]string{}, lib.Uses...), lib.Links...) {
				if err := checkRef(ref); err != nil {
					return fmt.Errorf("library %s/%s: %w", pkg.Namespace, lib.Name, err)
				}
			}
		}
	}
	return nil
}

func checkRef(ref string) error {
	parts := strings.Split(ref, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid reference %q, expected \"<namespace>/<library>\"", ref)
	}
	return nil
}

// PackageFields builds the field sequence of one package manifest. Library
// paths are written relative to the package file's directory.
func PackageFields(pkg PackageExport) []manifest.Field {
	fields := []manifest.Field{
		{Key: "Type", Value: "Package"},
		{Key: "Name", Value: pkg.Name},
		{Key: "Namespace", Value: pkg.Namespace},
	}
	for _, req := range pkg.Requires {
		fields = append(fields, manifest.Field{Key: "Requires", Value: req})
	}
	for _, lib := range pkg.Libraries {
		fields = append(fields, manifest.Field{
			Key:   "Library",
			Value: filepath.Join(pkg.Name+"-libs", lib.Name+".lml"),
		})
	}
	return fields
}

// LibraryFields builds the field sequence of one library manifest.
func LibraryFields(lib LibraryExport) []manifest.Field {
	fields := []manifest.Field{
		{Key: "Type", Value: "Library"},
		{Key: "Name", Value: lib.Name},
	}
	if lib.Linkable != "" {
		fields = append(fields, manifest.Field{Key: "Path", Value: lib.Linkable})
	}
	for _, inc := range lib.IncludeDirs {
		fields = append(fields, manifest.Field{Key: "Include-Path", Value: inc})
	}
	for _, def := range lib.Defines {
		fields = append(fields, manifest.Field{Key: "Preprocessor-Define", Value: def})
	}
	for _, use := range lib.Uses {
		fields = append(fields, manifest.Field{Key: "Uses", Value: use})
	}
	for _, link := range lib.Links {
		fields = append(fields, manifest.Field{Key: "Links", Value: link})
	}
	for _, special := range lib.SpecialUses {
		fields = append(fields, manifest.Field{Key: "Special-Uses", Value: special})
	}
	return fields
}

// WriteTree validates the description and writes the manifest tree under
// root: root/INDEX.lmi, root/<pkg>.lmp, root/<pkg>-libs/<lib>.lml. It
// returns the index path.
func (e *Exporter) WriteTree(root string, ix IndexExport) (string, error) {
	if err := e.Validate(ix); err != nil {
		return "", err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("creating export root: %w", err)
	}

	indexFields := []manifest.Field{{Key: "Type", Value: "Index"}}
	for _, pkg := range ix.Packages {
		lmpName := pkg.Name + ".lmp"
		if err := e.writeManifest(filepath.Join(root, lmpName), PackageFields(pkg)); err != nil {
			return "", err
		}
		for _, lib := range pkg.Libraries {
			lmlPath := filepath.Join(root, pkg.Name+"-libs", lib.Name+".lml")
			if err := os.MkdirAll(filepath.Dir(lmlPath), 0755); err != nil {
				return "", fmt.Errorf("creating library dir: %w", err)
			}
			if err := e.writeManifest(lmlPath, LibraryFields(lib)); err != nil {
				return "", err
			}
		}
		indexFields = append(indexFields, manifest.Field{
			Key:   "Package",
			Value: pkg.Name + "; " + lmpName,
		})
		e.log.Info().
			Str("package", pkg.Name).
			Int("libraries", len(pkg.Libraries)).
			Msg("package exported")
	}

	indexPath := filepath.Join(root, "INDEX.lmi")
	if err := e.writeManifest(indexPath, indexFields); err != nil {
		return "", err
	}
	return indexPath, nil
}

func (e *Exporter) writeManifest(path string, fields []manifest.Field) error {
	body, err := manifest.Format(fields)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(generatedHeader+body), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// specialByLinkable maps well-known system linkable names to special
// requirements, for export layers that translate raw link lines.
var specialByLinkable = map[string]string{
	"pthread": "Threading",
	"dl":      "DynamicLinker",
	"m":       "Math",
}

// SpecialForLinkable reports whether a raw linkable name stands for a
// platform special requirement rather than a package-provided library.
func SpecialForLinkable(name string) (string, bool) {
	special, ok := specialByLinkable[name]
	return special, ok
}
