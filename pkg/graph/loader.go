package graph

import (
	"strings"

	"github.com/openlibman/openlibman/pkg/manifest"
)

// LoadIndex parses and validates the index manifest at path and makes it
// the session's root. Package files referenced by the index are not loaded
// here; they resolve lazily on first reference, so sparse use of a huge
// index stays cheap.
func (s *Session) LoadIndex(path string) (*Index, error) {
	fields, err := s.parseManifest(path)
	if err != nil {
		return nil, err
	}

	warnings, err := manifest.IndexSchema.Validate(fields, path)
	s.warn(warnings...)
	if err != nil {
		return nil, newError(KindSchema, "invalid index").WithFile(path).WithCause(err)
	}

	ix := &Index{
		Path:    path,
		Entries: make(map[string]*IndexEntry),
		Fields:  fields,
	}
	for _, f := range fields.ForKey("Package") {
		name, pkgPath, ok := strings.Cut(f.Value, ";")
		if !ok {
			return nil, newError(KindBadReference,
				"invalid Package entry %q, expected \"<name>; <path>\"", f.Value).
				WithFile(path).WithField("Package")
		}
		name = strings.TrimSpace(name)
		pkgPath = strings.TrimSpace(pkgPath)
		if _, dup := ix.Entries[name]; dup {
			return nil, newError(KindDuplicatePackage,
				"package name %q declared more than once", name).
				WithFile(path).WithRef(name)
		}
		ix.Entries[name] = &IndexEntry{Name: name, Path: ResolvePath(pkgPath, path)}
		ix.Order = append(ix.Order, name)
	}

	s.index = ix
	s.log.Info().Str("file", path).Int("packages", len(ix.Order)).Msg("index loaded")
	return ix, nil
}

// loadPackage loads the package behind an index entry, memoized per index
// key. The package's library manifests are not loaded here; the dependency
// resolver imports them only after the package's Requires closure.
func (s *Session) loadPackage(entry *IndexEntry) (*Package, error) {
	if pkg, ok := s.packages[entry.Name]; ok {
		return pkg, nil
	}

	fields, err := s.parseManifest(entry.Path)
	if err != nil {
		return nil, err
	}

	warnings, err := manifest.PackageSchema.Validate(fields, entry.Path)
	s.warn(warnings...)
	if err != nil {
		return nil, newError(KindSchema, "invalid package %q", entry.Name).
			WithFile(entry.Path).WithRef(entry.Name).WithCause(err)
	}

	namespace, _, _ := fields.AtMostOne("Namespace")
	if namespace == "" {
		// Schema validation guarantees exactly one occurrence, but the
		// value itself must be non-empty.
		return nil, newError(KindSchema, "package %q has an empty Namespace", entry.Name).
			WithFile(entry.Path).WithField("Namespace")
	}

	pkg := &Package{
		Path:      entry.Path,
		Namespace: namespace,
		Requires:  fields.Values("Requires"),
		Fields:    fields,
	}
	// The declared Name is informational; it need not match the index key
	// and a mismatch is deliberately not warned about.
	pkg.Name, _, _ = fields.AtMostOne("Name")
	for _, libPath := range fields.Values("Library") {
		pkg.LibraryPaths = append(pkg.LibraryPaths, ResolvePath(libPath, entry.Path))
	}

	s.packages[entry.Name] = pkg
	s.log.Debug().
		Str("package", entry.Name).
		Str("namespace", namespace).
		Int("requires", len(pkg.Requires)).
		Int("libraries", len(pkg.LibraryPaths)).
		Msg("package loaded")
	return pkg, nil
}

// loadLibraries imports a package's libraries in declaration order,
// registering each composite identity. Idempotent per package.
func (s *Session) loadLibraries(pkg *Package) error {
	if pkg.Libraries != nil || len(pkg.LibraryPaths) == 0 {
		return nil
	}
	pkg.Libraries = make([]*Library, 0, len(pkg.LibraryPaths))
	for _, path := range pkg.LibraryPaths {
		lib, err := s.loadLibrary(pkg, path)
		if err != nil {
			return err
		}
		pkg.Libraries = append(pkg.Libraries, lib)
	}
	return nil
}

// loadLibrary loads one library manifest. Library schema violations are
// fatal, unlike the index and package Type leniency, because no sane
// default exists for library identity.
func (s *Session) loadLibrary(pkg *Package, path string) (*Library, error) {
	fields, err := s.parseManifest(path)
	if err != nil {
		return nil, err
	}

	warnings, err := manifest.LibrarySchema.Validate(fields, path)
	s.warn(warnings...)
	if err != nil {
		return nil, newError(KindSchema, "invalid library").WithFile(path).WithCause(err)
	}
	if typeValue, _, _ := fields.AtMostOne("Type"); typeValue != "Library" {
		return nil, newError(KindSchema, "library file declares Type %q", typeValue).
			WithFile(path).WithField("Type")
	}

	name, _, _ := fields.AtMostOne("Name")
	if name == "" {
		return nil, newError(KindSchema, "library file has an empty Name").
			WithFile(path).WithField("Name")
	}

	lib := &Library{
		Path:        path,
		Name:        name,
		Namespace:   pkg.Namespace,
		Defines:     fields.Values("Preprocessor-Define"),
		SpecialUses: fields.Values("Special-Uses"),
		Fields:      fields,
	}
	if linkable, ok, _ := fields.AtMostOne("Path"); ok {
		lib.Linkable = ResolvePath(linkable, path)
	}
	for _, inc := range fields.Values("Include-Path") {
		lib.IncludePaths = append(lib.IncludePaths, ResolvePath(inc, path))
	}
	if lib.Uses, err = parseRefs(fields.Values("Uses"), path); err != nil {
		return nil, err
	}
	if lib.Links, err = parseRefs(fields.Values("Links"), path); err != nil {
		return nil, err
	}

	identity := lib.Identity()
	if prev, dup := s.libraries[identity]; dup {
		return nil, newError(KindDuplicateLibrary,
			"library identity %q already provided by %s", identity, prev.Path).
			WithFile(path).WithRef(identity.String())
	}
	s.libraries[identity] = lib
	s.log.Debug().Str("library", identity.String()).Str("file", path).Msg("library loaded")
	return lib, nil
}

func parseRefs(values []string, file string) ([]QualifiedRef, error) {
	if len(values) == 0 {
		return nil, nil
	}
	refs := make([]QualifiedRef, 0, len(values))
	for _, v := range values {
		ref, err := ParseQualifiedRef(v)
		if err != nil {
			var ge *Error
			if asErr, ok := err.(*Error); ok {
				ge = asErr.WithFile(file)
			} else {
				ge = newError(KindBadReference, "invalid reference %q", v).WithFile(file)
			}
			return nil, ge
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
