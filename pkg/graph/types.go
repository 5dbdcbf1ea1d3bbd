package graph

import (
	"strings"

	"github.com/openlibman/openlibman/pkg/manifest"
)

// QualifiedRef is a "<namespace>/<library>" reference. The composite key is
// the unique identifier for a library across a whole resolution session;
// bare names may collide across packages.
type QualifiedRef struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

func (r QualifiedRef) String() string {
	return r.Namespace + "/" + r.Name
}

// ParseQualifiedRef parses a "<namespace>/<library>" string. Any other shape
// is a bad-reference error.
func ParseQualifiedRef(s string) (QualifiedRef, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return QualifiedRef{}, newError(KindBadReference,
			"invalid reference %q, expected \"<namespace>/<library>\"", s).WithRef(s)
	}
	return QualifiedRef{Namespace: parts[0], Name: parts[1]}, nil
}

// IndexEntry is one Package line of an index: a package name and the
// absolute path of its package manifest. The package itself is loaded
// lazily on first reference.
type IndexEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Index is the root entity of a resolution session. It is immutable once
// loaded.
type Index struct {
	// Path is the index manifest file.
	Path string `json:"path"`

	// Entries maps package name to its index entry. Names are unique
	// within one index.
	Entries map[string]*IndexEntry `json:"entries"`

	// Order lists package names in declaration order.
	Order []string `json:"order"`

	// Fields is the raw parsed field sequence, including X- extension
	// fields.
	Fields *manifest.FieldSequence `json:"-"`
}

// Entry returns the index entry for a package name.
func (ix *Index) Entry(name string) (*IndexEntry, bool) {
	e, ok := ix.Entries[name]
	return e, ok
}

// Package is a loaded package manifest.
type Package struct {
	// Path is the package manifest file.
	Path string `json:"path"`

	// Name is informational and need not match the index key.
	Name string `json:"name,omitempty"`

	// Namespace qualifies the package's library names. It is required but
	// not globally unique.
	Namespace string `json:"namespace"`

	// Requires lists required package names in declaration order.
	Requires []string `json:"requires,omitempty"`

	// LibraryPaths lists library manifest paths in declaration order,
	// resolved absolute.
	LibraryPaths []string `json:"libraryPaths,omitempty"`

	// Libraries holds the loaded libraries, populated lazily in
	// declaration order.
	Libraries []*Library `json:"libraries,omitempty"`

	Fields *manifest.FieldSequence `json:"-"`
}

// Library is a loaded library manifest, reachable only through its owning
// package's Library list.
type Library struct {
	// Path is the library manifest file.
	Path string `json:"path"`

	Name string `json:"name"`

	// Namespace is inherited from the owning package.
	Namespace string `json:"namespace"`

	// Linkable is the path of the linkable artifact. Empty means the
	// library is header-only.
	Linkable string `json:"linkable,omitempty"`

	// IncludePaths lists include directories, resolved absolute.
	IncludePaths []string `json:"includePaths,omitempty"`

	// Defines lists preprocessor definitions, "IDENT" or "IDENT=VALUE".
	Defines []string `json:"defines,omitempty"`

	Uses  []QualifiedRef `json:"uses,omitempty"`
	Links []QualifiedRef `json:"links,omitempty"`

	// SpecialUses lists reserved special requirement names or opaque
	// qualified "ns/name" entries.
	SpecialUses []string `json:"specialUses,omitempty"`

	Fields *manifest.FieldSequence `json:"-"`
}

// Identity returns the library's session-unique "<namespace>/<name>" key.
func (l *Library) Identity() QualifiedRef {
	return QualifiedRef{Namespace: l.Namespace, Name: l.Name}
}

// ResolvedPackage is one element of a package resolution order. Every
// package a resolved package transitively requires precedes it.
type ResolvedPackage struct {
	// Name is the index key the package was resolved under.
	Name    string   `json:"name"`
	Package *Package `json:"package"`
}

// Requirements is the flattened transitive requirement set of one library:
// its own usage requirements plus those inherited through Uses and Links
// chains, deduplicated by qualified identity.
type Requirements struct {
	// IncludePaths and Defines are compile-time requirements. Libraries
	// reachable only through Links edges do not contribute to them.
	IncludePaths []string `json:"includePaths,omitempty"`
	Defines      []string `json:"defines,omitempty"`

	// Linkables lists linkable artifact paths in dependency-consistent
	// order.
	Linkables []string `json:"linkables,omitempty"`

	// SpecialUses lists validated reserved names and opaque qualified
	// entries forwarded for platform-specific interpretation.
	SpecialUses []string `json:"specialUses,omitempty"`

	// Transitive lists every library identity contributing to the set,
	// each exactly once.
	Transitive []QualifiedRef `json:"transitive,omitempty"`
}
