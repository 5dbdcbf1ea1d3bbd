package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openlibman/openlibman/pkg/manifest"
)

func newQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query individual libman files",
		Long:  `Query fields of a single index, package, or library manifest.`,
	}
	cmd.AddCommand(newQueryIndexCommand())
	cmd.AddCommand(newQueryPackageCommand())
	cmd.AddCommand(newQueryLibraryCommand())
	return cmd
}

func newQueryIndexCommand() *cobra.Command {
	var (
		query   string
		pkgName string
	)

	cmd := &cobra.Command{
		Use:     "index <file>",
		Aliases: []string{"i", "idx"},
		Short:   "Query an index file",
		Example: `  # Does the index provide a package?
  lman query index INDEX.lmi --query has-package --package fmt

  # Print a package's manifest path
  lman query index INDEX.lmi --query package-path --package fmt`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			session, _, cleanup, err := newSession(cmd.Context(), cfg, sessionLogger(cfg))
			if err != nil {
				return err
			}
			defer cleanup()

			ix, err := session.LoadIndex(args[0])
			if err != nil {
				return err
			}
			entry, ok := ix.Entry(pkgName)
			switch query {
			case "has-package":
				if !ok {
					return ExitError{Code: 1}
				}
				return nil
			case "package-path":
				if !ok {
					fmt.Fprintf(cmd.ErrOrStderr(), "No such package: %s\n", pkgName)
					return ExitError{Code: 2}
				}
				fmt.Fprintln(cmd.OutOrStdout(), entry.Path)
				return nil
			default:
				return fmt.Errorf("unknown query type %q", query)
			}
		},
	}

	cmd.Flags().StringVarP(&query, "query", "Q", "", "query type (has-package, package-path)")
	cmd.Flags().StringVarP(&pkgName, "package", "p", "", "package name to query")
	_ = cmd.MarkFlagRequired("query")
	_ = cmd.MarkFlagRequired("package")
	return cmd
}

func newQueryPackageCommand() *cobra.Command {
	var (
		query string
		key   string
	)

	cmd := &cobra.Command{
		Use:     "package <file>",
		Aliases: []string{"p", "pkg"},
		Short:   "Query a package file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, warnings, err := manifest.ParseFile(args[0])
			if err != nil {
				return err
			}
			printWarnings(cmd, warnings)

			switch query {
			case "namespace", "name":
				v, err := fields.ExactlyOne(titleKey(query))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
			case "requires":
				printAll(cmd, fields.Values("Requires"))
			case "libraries":
				printAll(cmd, fields.Values("Library"))
			case "key":
				if key == "" {
					return fmt.Errorf("--key is required with --query=key")
				}
				printAll(cmd, fields.Values(key))
			default:
				return fmt.Errorf("unknown query type %q", query)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "Q", "", "query type (namespace, name, requires, libraries, key)")
	cmd.Flags().StringVar(&key, "key", "", "field key to query (used with --query=key)")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func newQueryLibraryCommand() *cobra.Command {
	var (
		query string
		key   string
	)

	cmd := &cobra.Command{
		Use:     "library <file>",
		Aliases: []string{"l", "lib"},
		Short:   "Query a library file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, warnings, err := manifest.ParseFile(args[0])
			if err != nil {
				return err
			}
			printWarnings(cmd, warnings)

			switch query {
			case "name":
				v, err := fields.ExactlyOne("Name")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
			case "path":
				v, _, err := fields.AtMostOne("Path")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
			case "includes":
				printAll(cmd, fields.Values("Include-Path"))
			case "defines":
				printAll(cmd, fields.Values("Preprocessor-Define"))
			case "uses":
				printAll(cmd, fields.Values("Uses"))
			case "links":
				printAll(cmd, fields.Values("Links"))
			case "key":
				if key == "" {
					return fmt.Errorf("--key is required with --query=key")
				}
				printAll(cmd, fields.Values(key))
			default:
				return fmt.Errorf("unknown query type %q", query)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "Q", "", "query type (name, path, includes, defines, uses, links, key)")
	cmd.Flags().StringVar(&key, "key", "", "field key to query (used with --query=key)")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func printAll(cmd *cobra.Command, values []string) {
	for _, v := range values {
		fmt.Fprintln(cmd.OutOrStdout(), v)
	}
}

func printWarnings(cmd *cobra.Command, warnings []manifest.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
}

func titleKey(query string) string {
	switch query {
	case "namespace":
		return "Namespace"
	default:
		return "Name"
	}
}
