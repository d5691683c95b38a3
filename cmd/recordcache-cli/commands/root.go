// Package commands implements the recordcache-cli subcommands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/recordcache/internal/rconfig"
	"github.com/satishbabariya/recordcache/internal/rlog"
)

var (
	cfg     *rconfig.Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "recordcache-cli",
	Short: "Inspect and query a recordcache schema and record store",
	Long: `recordcache-cli loads a schema document and a record store
(in-memory or SQL-backed) and lets you scaffold, validate, and inspect
the schema, and run findRecords-style queries against it from a terminal.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		rlog.Init(verbose)
		loaded, err := rconfig.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("schema", "", "path to the schema document (overrides config)")
	rootCmd.PersistentFlags().String("backend", "", "record store backend: memory or sql (overrides config)")
	rootCmd.PersistentFlags().String("dsn", "", "data source name for the sql backend (overrides config)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print recordcache-cli's version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Version)
		},
	}
	rootCmd.AddCommand(versionCmd)
}

// Version is set at build time via -ldflags.
var Version = "dev"
