// Package graph builds and resolves the libman entity graph: one index,
// its packages, and their libraries. A Session loads the index, resolves
// package Requires edges into a dependency-ordered import sequence, and
// flattens per-library transitive usage requirements for consumption by an
// external build-system layer.
package graph
