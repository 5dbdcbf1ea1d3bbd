package graph

import "strings"

// specialVocabulary is the closed set of valid unqualified Special-Uses
// names. The unqualified namespace is reserved; qualified "ns/name" entries
// are forwarded opaquely for platform-specific interpretation.
var specialVocabulary = map[string]bool{
	"Threading":     true,
	"Filesystem":    true,
	"DynamicLinker": true,
	"PosixRealtime": true,
	"Math":          true,
	"Sockets":       true,
}

// propagation mode bits. A library reached only through Links edges
// contributes its link-time subset (linkable path, onward references) but
// not its include paths or defines.
const (
	modeLink = 1 << iota
	modeCompile
)

// ResolveLibraryRequirements computes the flattened transitive requirement
// set of lib: its own include paths, defines, and linkable, plus those of
// every library reachable through Uses chains, plus the link-time subset of
// libraries reachable only through Links chains. Requirements are
// deduplicated by qualified identity, so a diamond contributes its shared
// dependency exactly once.
func (s *Session) ResolveLibraryRequirements(lib *Library) (*Requirements, error) {
	p := &propagator{
		session: s,
		visited: make(map[QualifiedRef]int),
		reqs:    &Requirements{},
	}
	if err := p.visit(lib, modeCompile|modeLink); err != nil {
		return nil, err
	}
	return p.reqs, nil
}

type propagator struct {
	session *Session
	visited map[QualifiedRef]int
	reqs    *Requirements
}

func (p *propagator) visit(lib *Library, mode int) error {
	identity := lib.Identity()
	seen := p.visited[identity]
	if seen&mode == mode {
		return nil
	}
	first := seen == 0
	p.visited[identity] = seen | mode

	if first {
		p.reqs.Transitive = append(p.reqs.Transitive, identity)
		if lib.Linkable != "" {
			p.reqs.Linkables = append(p.reqs.Linkables, lib.Linkable)
		}
		for _, special := range lib.SpecialUses {
			resolved, err := resolveSpecial(lib, special)
			if err != nil {
				return err
			}
			p.reqs.SpecialUses = appendUnique(p.reqs.SpecialUses, resolved)
		}
	}
	if mode&modeCompile != 0 && seen&modeCompile == 0 {
		p.reqs.IncludePaths = append(p.reqs.IncludePaths, lib.IncludePaths...)
		p.reqs.Defines = append(p.reqs.Defines, lib.Defines...)
	}

	// Uses edges keep the current mode; Links edges narrow to the
	// link-time subset.
	for _, ref := range lib.Uses {
		dep, err := p.resolve(lib, ref)
		if err != nil {
			return err
		}
		if err := p.visit(dep, mode); err != nil {
			return err
		}
	}
	for _, ref := range lib.Links {
		dep, err := p.resolve(lib, ref)
		if err != nil {
			return err
		}
		if err := p.visit(dep, mode&^modeCompile|modeLink); err != nil {
			return err
		}
	}
	return nil
}

// resolve maps a qualified reference to a loaded library. The loaded index
// graph must already contain the target; the core never guesses an
// alternate.
func (p *propagator) resolve(from *Library, ref QualifiedRef) (*Library, error) {
	dep, ok := p.session.libraries[ref]
	if !ok {
		return nil, newError(KindUnresolvedReference,
			"library %q references %q, which is not provided by any loaded package",
			from.Identity(), ref).
			WithFile(from.Path).WithRef(ref.String())
	}
	return dep, nil
}

// resolveSpecial validates one Special-Uses entry. Unqualified names must
// belong to the reserved vocabulary; qualified names pass through.
func resolveSpecial(lib *Library, special string) (string, error) {
	if strings.Contains(special, "/") {
		if _, err := ParseQualifiedRef(special); err != nil {
			return "", newError(KindBadReference,
				"library %q has invalid Special-Uses entry %q", lib.Identity(), special).
				WithFile(lib.Path).WithField("Special-Uses")
		}
		return special, nil
	}
	if !specialVocabulary[special] {
		return "", newError(KindSpecialUses,
			"library %q requests unknown special requirement %q", lib.Identity(), special).
			WithFile(lib.Path).WithField("Special-Uses").WithRef(special)
	}
	return special, nil
}

func appendUnique(list []string, v string) []string {
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}
