package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openlibman/openlibman/pkg/cache"
	"github.com/openlibman/openlibman/pkg/graph"
)

func newResolveCommand() *cobra.Command {
	var (
		packages []string
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <index>",
		Short: "Resolve packages and their library requirements",
		Long: `Resolve the requested packages into dependency order and print each
library's flattened transitive usage requirements.`,
		Example: `  # Resolve every package in the index
  lman resolve INDEX.lmi

  # Resolve selected packages, re-resolving when manifests change
  lman resolve INDEX.lmi --package fmt --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := sessionLogger(cfg)

			if watch {
				return resolveWatch(cmd.Context(), cmd, cfg, logger, args[0], packages)
			}
			return resolveOnce(cmd.Context(), cmd, cfg, logger, args[0], packages)
		},
	}

	cmd.Flags().StringArrayVar(&packages, "package", nil, "packages to resolve (default: all)")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and re-resolve when manifests change")
	return cmd
}

func resolveOnce(ctx context.Context, cmd *cobra.Command, cfg *Config, logger zerolog.Logger, indexPath string, packages []string) error {
	session, metrics, cleanup, err := newSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	_, err = runResolution(cmd, session, indexPath, packages)
	metrics.RecordResolution(resolutionOutcome(err))
	metrics.RecordWarnings(len(session.Warnings()))
	return err
}

// resolveWatch resolves once, then re-resolves with a fresh session each
// time a loaded manifest changes. Every resolution owns its own graph; only
// the parse cache carries over, invalidated by the watcher.
func resolveWatch(ctx context.Context, cmd *cobra.Command, cfg *Config, logger zerolog.Logger, indexPath string, packages []string) error {
	manifests, metrics, cleanup, err := newManifestCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	changed := make(chan string, 16)
	watcher, err := cache.NewWatcher(manifests, logger, func(path string) {
		select {
		case changed <- path:
		default:
		}
	})
	if err != nil {
		return err
	}
	go watcher.Run(ctx)

	for {
		session := graph.NewSession(
			graph.WithLogger(logger),
			graph.WithManifestCache(manifests),
		)
		resolved, err := runResolution(cmd, session, indexPath, packages)
		if err != nil {
			// A broken tree stays watched; the next write may fix it.
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
		metrics.RecordResolution(resolutionOutcome(err))
		metrics.RecordWarnings(len(session.Warnings()))
		for _, path := range watchPaths(session, resolved) {
			_ = watcher.Add(path)
		}

		select {
		case <-ctx.Done():
			return nil
		case path := <-changed:
			logger.Info().Str("file", path).Msg("manifest changed, re-resolving")
			// Absorb bursts of events from one editor save.
			time.Sleep(100 * time.Millisecond)
		drain:
			for {
				select {
				case <-changed:
				default:
					break drain
				}
			}
		}
	}
}

// watchPaths collects every manifest file one resolution pass touched: the
// index, each package manifest, and each loaded library manifest.
func watchPaths(session *graph.Session, resolved []*graph.ResolvedPackage) []string {
	ix := session.Index()
	if ix == nil {
		return nil
	}
	paths := []string{ix.Path}
	for _, name := range ix.Order {
		if entry, ok := ix.Entry(name); ok {
			paths = append(paths, entry.Path)
		}
	}
	for _, rp := range resolved {
		paths = append(paths, rp.Package.LibraryPaths...)
	}
	return paths
}

func runResolution(cmd *cobra.Command, session *graph.Session, indexPath string, packages []string) ([]*graph.ResolvedPackage, error) {
	ix, err := session.LoadIndex(indexPath)
	if err != nil {
		return nil, err
	}
	roots := packages
	if len(roots) == 0 {
		roots = ix.Order
	}

	resolved, err := session.ResolvePackages(roots)
	if err != nil {
		return nil, err
	}

	type libraryReport struct {
		Identity     string   `json:"identity"`
		Linkable     string   `json:"linkable,omitempty"`
		IncludePaths []string `json:"includePaths,omitempty"`
		Defines      []string `json:"defines,omitempty"`
		Linkables    []string `json:"linkables,omitempty"`
		SpecialUses  []string `json:"specialUses,omitempty"`
		Transitive   []string `json:"transitive,omitempty"`
	}
	var reports []libraryReport

	for _, rp := range resolved {
		for _, lib := range rp.Package.Libraries {
			reqs, err := session.ResolveLibraryRequirements(lib)
			if err != nil {
				return nil, err
			}
			report := libraryReport{
				Identity:     lib.Identity().String(),
				Linkable:     lib.Linkable,
				IncludePaths: reqs.IncludePaths,
				Defines:      reqs.Defines,
				Linkables:    reqs.Linkables,
				SpecialUses:  reqs.SpecialUses,
			}
			for _, t := range reqs.Transitive {
				report.Transitive = append(report.Transitive, t.String())
			}
			reports = append(reports, report)
		}
	}

	for _, w := range session.Warnings() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	if jsonOutput {
		return resolved, json.NewEncoder(cmd.OutOrStdout()).Encode(reports)
	}
	for _, r := range reports {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", r.Identity)
		if r.Linkable != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  path: %s\n", r.Linkable)
		}
		for _, inc := range r.IncludePaths {
			fmt.Fprintf(cmd.OutOrStdout(), "  include: %s\n", inc)
		}
		for _, def := range r.Defines {
			fmt.Fprintf(cmd.OutOrStdout(), "  define: %s\n", def)
		}
		for _, special := range r.SpecialUses {
			fmt.Fprintf(cmd.OutOrStdout(), "  special: %s\n", special)
		}
	}
	return resolved, nil
}
