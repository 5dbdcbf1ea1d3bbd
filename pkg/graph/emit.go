package graph

// ImportEmitter is the consumed collaborator interface: an external
// build-system layer that materializes one import target per resolved
// library. EmitImportTarget is invoked once per library, dependencies
// before dependents. The core does not interpret how targets are
// materialized.
type ImportEmitter interface {
	EmitImportTarget(identity QualifiedRef, linkable string, includeDirs []string, defines []string, transitive []QualifiedRef) error
}

// EmitImports walks the resolved packages in order and emits an import
// target for every library, each exactly once, with every library it uses
// or links emitted first.
func (s *Session) EmitImports(pkgs []*ResolvedPackage, emitter ImportEmitter) error {
	emitted := make(map[QualifiedRef]bool)
	for _, rp := range pkgs {
		for _, lib := range rp.Package.Libraries {
			if err := s.emitLibrary(lib, emitter, emitted); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Session) emitLibrary(lib *Library, emitter ImportEmitter, emitted map[QualifiedRef]bool) error {
	identity := lib.Identity()
	if emitted[identity] {
		return nil
	}
	emitted[identity] = true

	for _, ref := range append(append([]QualifiedRef{}, lib.Uses...), lib.Links...) {
		dep, ok := s.libraries[ref]
		if !ok {
			return newError(KindUnresolvedReference,
				"library %q references %q, which is not provided by any loaded package",
				identity, ref).
				WithFile(lib.Path).WithRef(ref.String())
		}
		if err := s.emitLibrary(dep, emitter, emitted); err != nil {
			return err
		}
	}

	reqs, err := s.ResolveLibraryRequirements(lib)
	if err != nil {
		return err
	}
	s.log.Debug().Str("library", identity.String()).Msg("emitting import target")
	return emitter.EmitImportTarget(identity, lib.Linkable, reqs.IncludePaths, reqs.Defines, reqs.Transitive)
}
