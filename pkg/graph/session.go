package graph

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openlibman/openlibman/pkg/cache"
	"github.com/openlibman/openlibman/pkg/manifest"
)

// Session owns one resolution session: the loaded index, the lazily loaded
// package and library graph, and the aggregated warnings. A session is
// single-threaded; the graph must not be mutated once a traversal has begun
// reading it. Independent sessions own independent graphs and cache
// namespaces and never share state.
type Session struct {
	id        string
	log       zerolog.Logger
	manifests *cache.Cache[*cache.ParsedManifest]

	index     *Index
	packages  map[string]*Package
	libraries map[QualifiedRef]*Library
	warnings  []manifest.Warning
}

// Option configures a session.
type Option func(*Session)

// WithLogger sets the session logger. The default discards nothing and
// writes through the global zerolog logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithManifestCache sets the parsed-manifest cache. The default is a fresh
// in-memory cache owned by the session.
func WithManifestCache(c *cache.Cache[*cache.ParsedManifest]) Option {
	return func(s *Session) {
		s.manifests = c
	}
}

// NewSession creates an empty resolution session. The session ID doubles as
// the default cache namespace, so concurrent sessions backed by a shared
// persistent store never observe each other's entries.
func NewSession(opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		log:       zerolog.Nop(),
		packages:  make(map[string]*Package),
		libraries: make(map[QualifiedRef]*Library),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.manifests == nil {
		s.manifests = cache.NewManifestCache()
	}
	s.log = s.log.With().Str("session", s.id).Logger()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Index returns the loaded index, or nil before LoadIndex.
func (s *Session) Index() *Index {
	return s.index
}

// Library returns the loaded library with the given qualified identity.
func (s *Session) Library(ref QualifiedRef) (*Library, bool) {
	l, ok := s.libraries[ref]
	return l, ok
}

// Warnings returns every warning collected so far, in the order it was
// observed. Warnings never change the outcome of a successful resolution.
func (s *Session) Warnings() []manifest.Warning {
	return s.warnings
}

func (s *Session) warn(ws ...manifest.Warning) {
	for _, w := range ws {
		s.log.Warn().Str("file", w.File).Int("line", w.Line).Msg(w.Message)
	}
	s.warnings = append(s.warnings, ws...)
}

// parseManifest reads and parses a manifest through the session cache.
// Parse warnings are replayed into the session each time the file is
// consulted, cached or not.
func (s *Session) parseManifest(path string) (*manifest.FieldSequence, error) {
	parsed, err := s.manifests.GetOrLoad(path, func(p string) (*cache.ParsedManifest, error) {
		fields, warnings, err := manifest.ParseFile(p)
		if err != nil {
			return nil, err
		}
		s.log.Debug().Str("file", p).Int("fields", fields.Len()).Msg("parsed manifest")
		return &cache.ParsedManifest{Fields: fields.Fields(), Warnings: warnings}, nil
	})
	if err != nil {
		return nil, newError(KindIO, "cannot load manifest").WithFile(path).WithCause(err)
	}
	s.warn(parsed.Warnings...)
	return manifest.NewFieldSequence(parsed.Fields), nil
}
