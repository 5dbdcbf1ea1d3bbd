package graph

import "path/filepath"

// ResolvePath normalizes a candidate path from a manifest field. Absolute
// paths pass through unchanged; relative paths are resolved against the
// directory containing the referencing manifest, never the process working
// directory. Applied uniformly to index Package paths, package Library
// paths, and library Include-Path entries.
func ResolvePath(candidate, referencingFile string) string {
	if filepath.IsAbs(candidate) {
		return filepath.Clean(candidate)
	}
	return filepath.Join(filepath.Dir(referencingFile), candidate)
}
