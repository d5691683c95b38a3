package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/recordcache/cmd/recordcache-cli/internal/ui"
	"github.com/satishbabariya/recordcache/internal/schemafile"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Render a schema document's models as markdown",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	schemaPath := resolvedSchemaPath(cmd)
	schema, err := schemafile.Load(schemaPath)
	if err != nil {
		return err
	}

	types := schema.ModelTypes()
	sort.Strings(types)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", schemaPath)
	for _, t := range types {
		model, _ := schema.GetModel(t)
		fmt.Fprintf(&b, "## %s\n\n", t)

		attrs := make([]string, 0, len(model.Attributes))
		for a := range model.Attributes {
			attrs = append(attrs, a)
		}
		sort.Strings(attrs)
		fmt.Fprintf(&b, "- attributes: %s\n", strings.Join(attrs, ", "))

		keys := make([]string, 0, len(model.Keys))
		for k := range model.Keys {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(&b, "- keys: %s\n", strings.Join(keys, ", "))

		relNames := make([]string, 0, len(model.Relationships))
		for r := range model.Relationships {
			relNames = append(relNames, r)
		}
		sort.Strings(relNames)
		for _, r := range relNames {
			rel := model.Relationships[r]
			fmt.Fprintf(&b, "- %s (%s) -> %s, inverse %q\n", r, rel.Kind, rel.Model, rel.Inverse)
		}
		b.WriteString("\n")
	}

	if err := ui.PrintMarkdown(b.String()); err != nil {
		return err
	}
	return nil
}
