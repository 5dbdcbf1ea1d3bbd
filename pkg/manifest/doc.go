// Package manifest implements the libman key-value file format: a
// line-oriented UTF-8 text format shared by index (.lmi), package (.lmp),
// and library (.lml) files.
//
// A manifest is an ordered sequence of fields. Keys may repeat; the order of
// repeated occurrences is significant because list-valued fields accumulate
// in file order. The package provides the line parser, the per-file-type
// schema validator, and the serializer used by the export layer.
package manifest
