package cache

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Invalidator is the cache-facing side of a watcher.
type Invalidator interface {
	Invalidate(path string)
}

// Watcher invalidates cache entries when their source manifests change on
// disk, for long-lived hosts that keep re-resolving one tree. Each write,
// create, rename, or removal drops the in-memory entry so the next
// GetOrLoad re-parses.
type Watcher struct {
	fsw    *fsnotify.Watcher
	target Invalidator
	log    zerolog.Logger

	// onChange, when set, runs after each invalidation.
	onChange func(path string)
}

// NewWatcher creates a watcher feeding invalidations into target.
func NewWatcher(target Invalidator, log zerolog.Logger, onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		fsw:      fsw,
		target:   target,
		log:      log.With().Str("component", "cache-watcher").Logger(),
		onChange: onChange,
	}, nil
}

// Add starts watching one manifest file.
func (w *Watcher) Add(path string) error {
	return w.fsw.Add(path)
}

// Run processes events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.fsw.Close()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.log.Debug().
					Str("file", event.Name).
					Str("op", event.Op.String()).
					Msg("manifest changed, invalidating cache entry")
				w.target.Invalidate(event.Name)
				if w.onChange != nil {
					w.onChange(event.Name)
				}
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}
