package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/recordcache/cmd/recordcache-cli/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Scaffold a schema.json and .env.example for a new project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const starterSchema = `{
  "version": "1.0.0",
  "models": {
    "planet": {
      "attributes": ["name"],
      "keys": ["name"],
      "relationships": {
        "moons": { "kind": "hasMany", "model": "moon", "inverse": "planet" }
      }
    },
    "moon": {
      "attributes": ["name"],
      "keys": ["name"],
      "relationships": {
        "planet": { "kind": "hasOne", "model": "planet", "inverse": "moons" }
      }
    }
  }
}
`

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	ui.PrintHeader("recordcache-cli", "init")

	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create project directory: %w", err)
		}
		ui.PrintSuccess("created project directory %s", dir)
	}

	schemaPath := filepath.Join(dir, "schema.json")
	if _, err := os.Stat(schemaPath); err == nil {
		ui.PrintWarning("schema file already exists: %s, skipping", schemaPath)
	} else {
		if err := os.WriteFile(schemaPath, []byte(starterSchema), 0o644); err != nil {
			return fmt.Errorf("write schema file: %w", err)
		}
		ui.PrintSuccess("created schema file: %s", schemaPath)
	}

	envPath := filepath.Join(dir, ".env.example")
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		content := "RECORDCACHE_BACKEND=memory\nRECORDCACHE_SCHEMA_PATH=schema.json\nRECORDCACHE_DSN=\n"
		if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
			ui.PrintWarning("failed to create .env.example: %v", err)
		} else {
			ui.PrintSuccess("created .env.example")
		}
	}

	fmt.Println()
	ui.PrintInfo("next steps:")
	fmt.Println("  1. edit schema.json to declare your models")
	fmt.Println("  2. recordcache-cli validate --schema schema.json")
	fmt.Println("  3. recordcache-cli query --schema schema.json --type <model>")
	return nil
}
