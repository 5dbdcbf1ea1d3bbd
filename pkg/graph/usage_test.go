package graph

import (
	"path/filepath"
	"strings"
	"testing"
)

// resolveTree loads the index, resolves the named packages, and returns the
// loaded library for ref.
func resolveTree(t *testing.T, dir string, roots []string, ref string) (*Session, *Library) {
	t.Helper()
	s := NewSession()
	loadIndex(t, s, dir)
	if _, err := s.ResolvePackages(roots); err != nil {
		t.Fatalf("ResolvePackages: %v", err)
	}
	qr, err := ParseQualifiedRef(ref)
	if err != nil {
		t.Fatalf("ParseQualifiedRef(%q): %v", ref, err)
	}
	lib, ok := s.Library(qr)
	if !ok {
		t.Fatalf("Library %q not loaded", ref)
	}
	return s, lib
}

func TestResolveLibraryRequirements_TransitiveUses(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: app; app.lmp\nPackage: base; base.lmp\n",
		"app.lmp":   "Type: Package\nNamespace: App\nRequires: base\nLibrary: app.lml\n",
		"base.lmp":  "Type: Package\nNamespace: Base\nLibrary: base.lml\n",
		"app.lml": "Type: Library\nName: main\nPath: libapp.a\n" +
			"Include-Path: include\nPreprocessor-Define: APP=1\nUses: Base/core\n",
		"base.lml": "Type: Library\nName: core\nPath: libbase.a\n" +
			"Include-Path: base-include\nPreprocessor-Define: BASE\n",
	})

	s, lib := resolveTree(t, dir, []string{"app"}, "App/main")
	reqs, err := s.ResolveLibraryRequirements(lib)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(reqs.Transitive) != 2 {
		t.Fatalf("Expected 2 transitive identities, got %v", reqs.Transitive)
	}
	if reqs.Transitive[0].String() != "App/main" || reqs.Transitive[1].String() != "Base/core" {
		t.Errorf("Unexpected transitive order: %v", reqs.Transitive)
	}

	wantIncludes := []string{filepath.Join(dir, "include"), filepath.Join(dir, "base-include")}
	if len(reqs.IncludePaths) != 2 || reqs.IncludePaths[0] != wantIncludes[0] || reqs.IncludePaths[1] != wantIncludes[1] {
		t.Errorf("Expected includes %v, got %v", wantIncludes, reqs.IncludePaths)
	}
	if len(reqs.Defines) != 2 || reqs.Defines[0] != "APP=1" || reqs.Defines[1] != "BASE" {
		t.Errorf("Expected defines [APP=1 BASE], got %v", reqs.Defines)
	}
	if len(reqs.Linkables) != 2 {
		t.Errorf("Expected 2 linkables, got %v", reqs.Linkables)
	}
}

func TestResolveLibraryRequirements_DiamondContributesOnce(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: p; p.lmp\n",
		"p.lmp": "Type: Package\nNamespace: P\n" +
			"Library: a.lml\nLibrary: b.lml\nLibrary: c.lml\nLibrary: d.lml\n",
		"a.lml": "Type: Library\nName: a\nUses: P/b\nUses: P/c\n",
		"b.lml": "Type: Library\nName: b\nUses: P/d\n",
		"c.lml": "Type: Library\nName: c\nUses: P/d\n",
		"d.lml": "Type: Library\nName: d\nPath: libd.a\nInclude-Path: d-inc\nPreprocessor-Define: D\nSpecial-Uses: Math\n",
	})

	s, lib := resolveTree(t, dir, []string{"p"}, "P/a")
	reqs, err := s.ResolveLibraryRequirements(lib)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// d is reachable through both b and c but contributes exactly once.
	countD := 0
	for _, id := range reqs.Transitive {
		if id.Name == "d" {
			countD++
		}
	}
	if countD != 1 {
		t.Errorf("Expected d once in transitive set, got %d times: %v", countD, reqs.Transitive)
	}
	if len(reqs.Linkables) != 1 {
		t.Errorf("Expected 1 linkable, got %v", reqs.Linkables)
	}
	if len(reqs.Defines) != 1 || reqs.Defines[0] != "D" {
		t.Errorf("Expected defines [D], got %v", reqs.Defines)
	}
	if len(reqs.SpecialUses) != 1 || reqs.SpecialUses[0] != "Math" {
		t.Errorf("Expected special uses [Math], got %v", reqs.SpecialUses)
	}
}

func TestResolveLibraryRequirements_LinksExcludeCompileRequirements(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: p; p.lmp\n",
		"p.lmp":     "Type: Package\nNamespace: P\nLibrary: top.lml\nLibrary: impl.lml\n",
		"top.lml":   "Type: Library\nName: top\nLinks: P/impl\n",
		"impl.lml": "Type: Library\nName: impl\nPath: libimpl.a\n" +
			"Include-Path: impl-inc\nPreprocessor-Define: IMPL\n",
	})

	s, lib := resolveTree(t, dir, []string{"p"}, "P/top")
	reqs, err := s.ResolveLibraryRequirements(lib)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// A Links-only dependency contributes its linkable but not its
	// compile-time requirements.
	if len(reqs.Linkables) != 1 {
		t.Errorf("Expected linkable from linked library, got %v", reqs.Linkables)
	}
	if len(reqs.IncludePaths) != 0 {
		t.Errorf("Expected no include paths through Links, got %v", reqs.IncludePaths)
	}
	if len(reqs.Defines) != 0 {
		t.Errorf("Expected no defines through Links, got %v", reqs.Defines)
	}
	if len(reqs.Transitive) != 2 {
		t.Errorf("Expected both identities in transitive set, got %v", reqs.Transitive)
	}
}

func TestResolveLibraryRequirements_UsesAfterLinksRestoresCompile(t *testing.T) {
	// d is reached first through a Links chain, then again through a Uses
	// chain. Its compile-time requirements must still appear exactly once.
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: p; p.lmp\n",
		"p.lmp": "Type: Package\nNamespace: P\n" +
			"Library: linker.lml\nLibrary: user.lml\nLibrary: d.lml\nLibrary: top.lml\n",
		"linker.lml": "Type: Library\nName: linker\nLinks: P/d\n",
		"user.lml":   "Type: Library\nName: user\nUses: P/d\n",
		"d.lml":      "Type: Library\nName: d\nInclude-Path: d-inc\nPreprocessor-Define: D\n",
		"top.lml":    "Type: Library\nName: top\nUses: P/linker\nUses: P/user\n",
	})

	s, lib := resolveTree(t, dir, []string{"p"}, "P/top")
	reqs, err := s.ResolveLibraryRequirements(lib)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(reqs.Defines) != 1 || reqs.Defines[0] != "D" {
		t.Errorf("Expected defines [D] exactly once, got %v", reqs.Defines)
	}
	if len(reqs.IncludePaths) != 1 {
		t.Errorf("Expected 1 include path, got %v", reqs.IncludePaths)
	}
}

func TestResolveLibraryRequirements_UnresolvedReference(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: p; p.lmp\n",
		"p.lmp":     "Type: Package\nNamespace: Bar\nLibrary: gizmo.lml\n",
		"gizmo.lml": "Type: Library\nName: gizmo\nUses: Bar/missing\n",
	})

	s, lib := resolveTree(t, dir, []string{"p"}, "Bar/gizmo")
	_, err := s.ResolveLibraryRequirements(lib)
	if !IsUnresolvedReference(err) {
		t.Fatalf("Expected unresolved-reference error, got: %v", err)
	}
	// The error names both the referencing library and the missing target.
	if !strings.Contains(err.Error(), "Bar/gizmo") || !strings.Contains(err.Error(), "Bar/missing") {
		t.Errorf("Expected error to name referencer and target, got: %v", err)
	}
}

func TestResolveLibraryRequirements_UnknownSpecialUses(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: p; p.lmp\n",
		"p.lmp":     "Type: Package\nNamespace: P\nLibrary: a.lml\n",
		"a.lml":     "Type: Library\nName: a\nSpecial-Uses: Graphics\n",
	})

	s, lib := resolveTree(t, dir, []string{"p"}, "P/a")
	_, err := s.ResolveLibraryRequirements(lib)
	if KindOf(err) != KindSpecialUses {
		t.Fatalf("Expected special-uses error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Graphics") {
		t.Errorf("Expected error to name the unknown entry, got: %v", err)
	}
}

func TestResolveLibraryRequirements_QualifiedSpecialPassesThrough(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: p; p.lmp\n",
		"p.lmp":     "Type: Package\nNamespace: P\nLibrary: a.lml\n",
		"a.lml":     "Type: Library\nName: a\nSpecial-Uses: Threading\nSpecial-Uses: Vendor/gpu\n",
	})

	s, lib := resolveTree(t, dir, []string{"p"}, "P/a")
	reqs, err := s.ResolveLibraryRequirements(lib)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(reqs.SpecialUses) != 2 || reqs.SpecialUses[0] != "Threading" || reqs.SpecialUses[1] != "Vendor/gpu" {
		t.Errorf("Expected [Threading Vendor/gpu], got %v", reqs.SpecialUses)
	}
}

func TestResolveLibraryRequirements_CrossPackageUses(t *testing.T) {
	// A library may use a library from a required package's namespace even
	// though the reference carries no package name.
	dir := writeTree(t, map[string]string{
		"INDEX.lmi": "Type: Index\nPackage: app; app.lmp\nPackage: util; util.lmp\n",
		"app.lmp":   "Type: Package\nNamespace: App\nRequires: util\nLibrary: app.lml\n",
		"util.lmp":  "Type: Package\nNamespace: Util\nLibrary: strings.lml\n",
		"app.lml":   "Type: Library\nName: main\nUses: Util/strings\n",
		"strings.lml": "Type: Library\nName: strings\nPath: libstr.a\n" +
			"Special-Uses: Filesystem\n",
	})

	s, lib := resolveTree(t, dir, []string{"app"}, "App/main")
	reqs, err := s.ResolveLibraryRequirements(lib)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(reqs.SpecialUses) != 1 || reqs.SpecialUses[0] != "Filesystem" {
		t.Errorf("Expected inherited special use Filesystem, got %v", reqs.SpecialUses)
	}
	if len(reqs.Linkables) != 1 {
		t.Errorf("Expected 1 linkable, got %v", reqs.Linkables)
	}
}
