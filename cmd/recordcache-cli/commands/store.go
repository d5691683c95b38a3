package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/recordcache/backends/memory"
	"github.com/satishbabariya/recordcache/backends/sqlbacked"
	"github.com/satishbabariya/recordcache/internal/schemafile"
	"github.com/satishbabariya/recordcache/pkg/recordcache"
)

// resolvedSchemaPath returns the --schema flag value if set, else cfg's.
func resolvedSchemaPath(cmd *cobra.Command) string {
	if v, _ := cmd.Flags().GetString("schema"); v != "" {
		return v
	}
	return cfg.SchemaPath
}

func resolvedBackend(cmd *cobra.Command) string {
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		return v
	}
	return cfg.Backend
}

func resolvedDSN(cmd *cobra.Command) string {
	if v, _ := cmd.Flags().GetString("dsn"); v != "" {
		return v
	}
	return cfg.DSN
}

// openStore loads the schema document named by flags/config and opens the
// matching RecordAccessor, returning a closer that is a no-op for the
// in-memory backend.
func openStore(cmd *cobra.Command) (recordcache.RecordAccessor, *recordcache.StaticSchema, func() error, error) {
	schemaPath := resolvedSchemaPath(cmd)
	schema, err := schemafile.Load(schemaPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load schema %s: %w", schemaPath, err)
	}

	switch resolvedBackend(cmd) {
	case "", "memory":
		return memory.New(schema), schema, func() error { return nil }, nil
	case "sql":
		dsn := resolvedDSN(cmd)
		if dsn == "" {
			return nil, nil, nil, fmt.Errorf("sql backend requires --dsn or RECORDCACHE_DSN")
		}
		acc, err := sqlbacked.Open("sqlite3", dsn)
		if err != nil {
			return nil, nil, nil, err
		}
		return acc, schema, acc.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown backend %q", resolvedBackend(cmd))
	}
}
