package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	var packages []string

	cmd := &cobra.Command{
		Use:   "validate <index>",
		Short: "Validate a libman manifest tree",
		Long: `Validate an index and the packages reachable from it.

This command checks:
  - Field syntax and per-file schema cardinality
  - Package name uniqueness within the index
  - Requires graph acyclicity and target existence
  - Uses/Links reference resolution across loaded libraries`,
		Example: `  # Validate everything the index provides
  lman validate INDEX.lmi

  # Validate only the closure of selected packages
  lman validate INDEX.lmi --package fmt --package spdlog`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := sessionLogger(cfg)
			session, metrics, cleanup, err := newSession(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			ix, err := session.LoadIndex(args[0])
			if err != nil {
				metrics.RecordResolution(resolutionOutcome(err))
				return err
			}

			roots := packages
			if len(roots) == 0 {
				roots = ix.Order
			}
			resolved, err := session.ResolvePackages(roots)
			if err != nil {
				metrics.RecordResolution(resolutionOutcome(err))
				return err
			}
			for _, rp := range resolved {
				for _, lib := range rp.Package.Libraries {
					if _, err := session.ResolveLibraryRequirements(lib); err != nil {
						metrics.RecordResolution(resolutionOutcome(err))
						return err
					}
				}
			}
			metrics.RecordResolution("ok")

			warnings := session.Warnings()
			metrics.RecordWarnings(len(warnings))
			for _, w := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}

			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"index":    args[0],
					"packages": len(resolved),
					"warnings": len(warnings),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d package(s), %d warning(s)\n", len(resolved), len(warnings))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&packages, "package", nil, "restrict validation to these packages and their requirements")
	return cmd
}
