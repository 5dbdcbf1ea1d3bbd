package graph

import (
	"path/filepath"
	"strings"
	"testing"
)

// loadIndex loads the index written by writeTree and fails the test on error.
func loadIndex(t *testing.T, s *Session, dir string) {
	t.Helper()
	if _, err := s.LoadIndex(filepath.Join(dir, "INDEX.lmi")); err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
}

func orderNames(pkgs []*ResolvedPackage) []string {
	names := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		names = append(names, p.Name)
	}
	return names
}

func TestResolvePackages_SinglePackage(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: foo; foo.lmp\n",
		"foo.lmp":   "Type: Package\nNamespace: Foo\nLibrary: libs/core.lml\n",
		"libs/core.lml": "Type: Library\nName: core\nPath: lib/libfoo.a\n" +
			"Include-Path: include\n",
	})

	s := NewSession()
	loadIndex(t, s, dir)
	pkgs, err := s.ResolvePackages([]string{"foo"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "foo" {
		t.Fatalf("Expected [foo], got %v", orderNames(pkgs))
	}

	pkg := pkgs[0].Package
	if pkg.Namespace != "Foo" {
		t.Errorf("Expected namespace Foo, got %s", pkg.Namespace)
	}
	if len(pkg.Libraries) != 1 {
		t.Fatalf("Expected 1 library, got %d", len(pkg.Libraries))
	}

	lib := pkg.Libraries[0]
	if got := lib.Identity().String(); got != "Foo/core" {
		t.Errorf("Expected identity Foo/core, got %s", got)
	}
	wantLinkable := filepath.Join(dir, "libs", "lib", "libfoo.a")
	if lib.Linkable != wantLinkable {
		t.Errorf("Expected linkable %s, got %s", wantLinkable, lib.Linkable)
	}
	wantInclude := filepath.Join(dir, "libs", "include")
	if len(lib.IncludePaths) != 1 || lib.IncludePaths[0] != wantInclude {
		t.Errorf("Expected include paths [%s], got %v", wantInclude, lib.IncludePaths)
	}
}

func TestResolvePackages_RequiresBeforeDependent(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: app; app.lmp\nPackage: base; base.lmp\n",
		"app.lmp":   "Type: Package\nNamespace: App\nRequires: base\n",
		"base.lmp":  "Type: Package\nNamespace: Base\n",
	})

	s := NewSession()
	loadIndex(t, s, dir)
	pkgs, err := s.ResolvePackages([]string{"app"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	names := orderNames(pkgs)
	if len(names) != 2 || names[0] != "base" || names[1] != "app" {
		t.Errorf("Expected [base app], got %v", names)
	}
}

func TestResolvePackages_SharedDependencyOnce(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: a; a.lmp\nPackage: b; b.lmp\nPackage: shared; shared.lmp\n",
		"a.lmp":      "Type: Package\nNamespace: A\nRequires: shared\n",
		"b.lmp":      "Type: Package\nNamespace: B\nRequires: shared\n",
		"shared.lmp": "Type: Package\nNamespace: Shared\n",
	})

	s := NewSession()
	loadIndex(t, s, dir)
	pkgs, err := s.ResolvePackages([]string{"a", "b"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	names := orderNames(pkgs)
	want := []string{"shared", "a", "b"}
	if len(names) != len(want) {
		t.Fatalf("Expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestResolvePackages_DiamondRequiresOnce(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: a; a.lmp\nPackage: b; b.lmp\nPackage: c; c.lmp\nPackage: d; d.lmp\n",
		"a.lmp":     "Type: Package\nNamespace: A\nRequires: b\nRequires: c\n",
		"b.lmp":     "Type: Package\nNamespace: B\nRequires: d\n",
		"c.lmp":     "Type: Package\nNamespace: C\nRequires: d\n",
		"d.lmp":     "Type: Package\nNamespace: D\n",
	})

	s := NewSession()
	loadIndex(t, s, dir)
	pkgs, err := s.ResolvePackages([]string{"a"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	names := orderNames(pkgs)
	if len(names) != 4 {
		t.Fatalf("Expected 4 packages, got %v", names)
	}

	position := make(map[string]int)
	for i, name := range names {
		if _, dup := position[name]; dup {
			t.Fatalf("Package %s resolved more than once: %v", name, names)
		}
		position[name] = i
	}
	if position["d"] > position["b"] || position["d"] > position["c"] {
		t.Errorf("Expected d before b and c, got %v", names)
	}
	if position["b"] > position["a"] || position["c"] > position["a"] {
		t.Errorf("Expected b and c before a, got %v", names)
	}
}

func TestResolvePackages_CycleDetected(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: a; a.lmp\nPackage: b; b.lmp\nPackage: c; c.lmp\n",
		"a.lmp":     "Type: Package\nNamespace: A\nRequires: b\n",
		"b.lmp":     "Type: Package\nNamespace: B\nRequires: c\n",
		"c.lmp":     "Type: Package\nNamespace: C\nRequires: a\n",
	})

	s := NewSession()
	loadIndex(t, s, dir)
	_, err := s.ResolvePackages([]string{"a"})
	if !IsCycle(err) {
		t.Fatalf("Expected requirement-cycle error, got: %v", err)
	}
	// The message names every member of the cycle.
	for _, member := range []string{"a", "b", "c"} {
		if !strings.Contains(err.Error(), member) {
			t.Errorf("Expected cycle message to name %q, got: %v", member, err)
		}
	}
}

func TestResolvePackages_SelfCycle(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: a; a.lmp\n",
		"a.lmp":     "Type: Package\nNamespace: A\nRequires: a\n",
	})

	s := NewSession()
	loadIndex(t, s, dir)
	_, err := s.ResolvePackages([]string{"a"})
	if !IsCycle(err) {
		t.Fatalf("Expected requirement-cycle error, got: %v", err)
	}
}

func TestResolvePackages_UnknownPackage(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: a; a.lmp\n",
		"a.lmp":     "Type: Package\nNamespace: A\nRequires: nowhere\n",
	})

	s := NewSession()
	loadIndex(t, s, dir)
	_, err := s.ResolvePackages([]string{"a"})
	if !IsUnknownPackage(err) {
		t.Fatalf("Expected unknown-package error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "nowhere") {
		t.Errorf("Expected error to name the missing package, got: %v", err)
	}
}

func TestResolvePackages_NoIndexLoaded(t *testing.T) {
	s := NewSession()
	_, err := s.ResolvePackages([]string{"a"})
	if !IsUnknownPackage(err) {
		t.Fatalf("Expected unknown-package error, got: %v", err)
	}
}

func TestResolvePackages_MissingNamespace(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: a; a.lmp\n",
		"a.lmp":     "Type: Package\nName: a\n",
	})

	s := NewSession()
	loadIndex(t, s, dir)
	_, err := s.ResolvePackages([]string{"a"})
	if KindOf(err) != KindSchema {
		t.Fatalf("Expected schema error for missing Namespace, got: %v", err)
	}
}

func TestResolvePackages_LibraryTypeMismatchFatal(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: a; a.lmp\n",
		"a.lmp":     "Type: Package\nNamespace: A\nLibrary: x.lml\n",
		"x.lml":     "Type: Package\nName: x\n",
	})

	s := NewSession()
	loadIndex(t, s, dir)
	_, err := s.ResolvePackages([]string{"a"})
	if KindOf(err) != KindSchema {
		t.Fatalf("Expected schema error for wrong library Type, got: %v", err)
	}
}

func TestResolvePackages_DuplicateLibraryIdentity(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: a; a.lmp\nPackage: b; b.lmp\n",
		"a.lmp":     "Type: Package\nNamespace: Same\nLibrary: a.lml\n",
		"b.lmp":     "Type: Package\nNamespace: Same\nLibrary: b.lml\n",
		"a.lml":     "Type: Library\nName: core\n",
		"b.lml":     "Type: Library\nName: core\n",
	})

	s := NewSession()
	loadIndex(t, s, dir)
	_, err := s.ResolvePackages([]string{"a", "b"})
	if KindOf(err) != KindDuplicateLibrary {
		t.Fatalf("Expected duplicate-library error, got: %v", err)
	}
}

func TestResolvePackages_RepeatedRootsResolveOnce(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: a; a.lmp\n",
		"a.lmp":     "Type: Package\nNamespace: A\n",
	})

	s := NewSession()
	loadIndex(t, s, dir)
	pkgs, err := s.ResolvePackages([]string{"a", "a"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(pkgs) != 1 {
		t.Errorf("Expected a single resolved package, got %v", orderNames(pkgs))
	}
}
