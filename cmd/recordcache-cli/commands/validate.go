package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/recordcache/cmd/recordcache-cli/internal/ui"
	"github.com/satishbabariya/recordcache/internal/schemafile"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse a schema document and report its declared models",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ui.PrintHeader("recordcache-cli", "validate")

	schemaPath := resolvedSchemaPath(cmd)
	schema, err := schemafile.Load(schemaPath)
	if err != nil {
		return err
	}

	types := schema.ModelTypes()
	sort.Strings(types)

	rows := make([][]string, 0, len(types))
	for _, t := range types {
		model, _ := schema.GetModel(t)
		rows = append(rows, []string{
			t,
			fmt.Sprintf("%d", len(model.Attributes)),
			fmt.Sprintf("%d", len(model.Keys)),
			fmt.Sprintf("%d", len(model.Relationships)),
		})
	}
	ui.PrintTable([]string{"model", "attributes", "keys", "relationships"}, rows)

	ui.PrintSuccess("schema %s is valid (%d models)", schemaPath, len(types))
	return nil
}
