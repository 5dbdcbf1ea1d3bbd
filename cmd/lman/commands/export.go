package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openlibman/openlibman/pkg/export"
)

func newExportCommand() *cobra.Command {
	var (
		descriptor string
		outDir     string
		checkOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a libman manifest tree from an export description",
		Long: `Read a YAML export description and serialize it into a manifest tree:
one .lmp per package, one .lml per library, and an INDEX.lmi.`,
		Example: `  # Write a tree under ./lm
  lman export --descriptor export.yaml --out ./lm

  # Validate the description without writing files
  lman export --descriptor export.yaml --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := sessionLogger(cfg)

			data, err := os.ReadFile(descriptor)
			if err != nil {
				return fmt.Errorf("reading descriptor %s: %w", descriptor, err)
			}
			var ix export.IndexExport
			if err := yaml.Unmarshal(data, &ix); err != nil {
				return fmt.Errorf("parsing descriptor %s: %w", descriptor, err)
			}

			exporter := export.NewExporter(logger)
			if checkOnly {
				if err := exporter.Validate(ix); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "OK")
				return nil
			}

			indexPath, err := exporter.WriteTree(outDir, ix)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), indexPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&descriptor, "descriptor", "", "YAML export description file")
	cmd.Flags().StringVar(&outDir, "out", "lm", "output directory for the manifest tree")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "validate the description without writing")
	_ = cmd.MarkFlagRequired("descriptor")
	return cmd
}
