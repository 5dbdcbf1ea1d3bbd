package cache

import (
	"encoding/json"

	"github.com/openlibman/openlibman/pkg/manifest"
)

// ParsedManifest is the cacheable result of parsing one manifest file: its
// fields in file order and the parse warnings, which are replayed on every
// cache hit so warnings are never swallowed by memoization.
type ParsedManifest struct {
	Fields   []manifest.Field   `json:"fields"`
	Warnings []manifest.Warning `json:"warnings,omitempty"`
}

// ManifestCodec serializes parsed manifests for a persistent store.
func ManifestCodec() Codec[*ParsedManifest] {
	return Codec[*ParsedManifest]{
		Marshal: func(p *ParsedManifest) ([]byte, error) {
			return json.Marshal(p)
		},
		Unmarshal: func(data []byte) (*ParsedManifest, error) {
			var p ParsedManifest
			if err := json.Unmarshal(data, &p); err != nil {
				return nil, err
			}
			return &p, nil
		},
	}
}

// NewManifestCache creates a cache for parsed manifest files.
func NewManifestCache(opts ...Option[*ParsedManifest]) *Cache[*ParsedManifest] {
	return New(opts...)
}
