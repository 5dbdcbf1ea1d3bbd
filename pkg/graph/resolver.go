package graph

import "strings"

// visitState tracks the DFS progress of one package.
type visitState int

const (
	stateUnvisited visitState = iota
	stateInProgress
	stateDone
)

// ResolvePackages computes a linear processing order for the requested
// package names: every package appears after all packages in its transitive
// Requires closure, and exactly once regardless of how many packages
// require it. Requires edges must form a DAG; a cycle reachable from any
// requested root is a hard error and no member of the cycle is emitted.
func (s *Session) ResolvePackages(names []string) ([]*ResolvedPackage, error) {
	if s.index == nil {
		return nil, newError(KindUnknownPackage, "no index loaded")
	}

	r := &packageResolver{
		session: s,
		state:   make(map[string]visitState),
	}
	for _, name := range names {
		if err := r.visit(name); err != nil {
			return nil, err
		}
	}

	s.log.Info().
		Int("requested", len(names)).
		Int("resolved", len(r.order)).
		Msg("package requirements resolved")
	return r.order, nil
}

type packageResolver struct {
	session *Session
	state   map[string]visitState
	stack   []string
	order   []*ResolvedPackage
}

// visit runs the depth-first traversal from one package. A package is
// marked in progress on entry and done on exit; meeting an in-progress
// package again means the Requires graph has a cycle. The package's own
// libraries are imported only after its whole Requires closure, so every
// namespace a later Uses reference needs is already registered.
func (r *packageResolver) visit(name string) error {
	switch r.state[name] {
	case stateDone:
		return nil
	case stateInProgress:
		return newError(KindCycle, "requirement cycle detected: %s", formatCycle(r.stack, name)).
			WithRef(name)
	}

	entry, ok := r.session.index.Entry(name)
	if !ok {
		return newError(KindUnknownPackage, "package %q is not in the index", name).
			WithFile(r.session.index.Path).WithRef(name)
	}

	pkg, err := r.session.loadPackage(entry)
	if err != nil {
		return err
	}

	r.state[name] = stateInProgress
	r.stack = append(r.stack, name)
	for _, req := range pkg.Requires {
		if err := r.visit(req); err != nil {
			return err
		}
	}
	r.stack = r.stack[:len(r.stack)-1]

	if err := r.session.loadLibraries(pkg); err != nil {
		return err
	}

	r.state[name] = stateDone
	r.order = append(r.order, &ResolvedPackage{Name: name, Package: pkg})
	return nil
}

// formatCycle renders the cycle portion of the DFS stack for the error
// message, closing the loop on the repeated package.
func formatCycle(stack []string, repeated string) string {
	start := 0
	for i, name := range stack {
		if name == repeated {
			start = i
			break
		}
	}
	return strings.Join(append(append([]string{}, stack[start:]...), repeated), " -> ")
}
