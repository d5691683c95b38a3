package commands

import (
	"fmt"
	"sort"
	"time"

	survey "github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/recordcache/cmd/recordcache-cli/internal/ui"
	"github.com/satishbabariya/recordcache/internal/querycache"
	"github.com/satishbabariya/recordcache/pkg/recordcache"
)

var (
	queryType        string
	queryAttribute   string
	queryEquals      string
	queryLimit       int
	queryInteractive bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a findRecords query against a schema and record store",
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryType, "type", "", "model type to query")
	queryCmd.Flags().StringVar(&queryAttribute, "attribute", "", "attribute name to filter on")
	queryCmd.Flags().StringVar(&queryEquals, "equals", "", "value the attribute must equal")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "page size limit, 0 for unbounded")
	queryCmd.Flags().BoolVar(&queryInteractive, "interactive", false, "prompt for the model type interactively")
	rootCmd.AddCommand(queryCmd)
}

// cache holds recent findRecords results across query invocations in a
// single process; a fresh cache per run is fine since recordcache-cli is
// typically invoked once per query rather than left running.
var cache = querycache.New(64, 5*time.Minute)

func runQuery(cmd *cobra.Command, args []string) error {
	ui.PrintHeader("recordcache-cli", "query")

	accessor, schema, closeStore, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeStore()

	modelType := queryType
	if queryInteractive || modelType == "" {
		types := schema.ModelTypes()
		sort.Strings(types)
		if len(types) == 0 {
			return fmt.Errorf("schema declares no models")
		}
		prompt := &survey.Select{Message: "model type:", Options: types}
		if err := survey.AskOne(prompt, &modelType); err != nil {
			return err
		}
	}

	if _, ok := schema.GetModel(modelType); !ok {
		return fmt.Errorf("unknown model type %q", modelType)
	}

	q := recordcache.FindRecordsQuery{Type: modelType}
	if queryAttribute != "" {
		q.Filter = []recordcache.Predicate{
			recordcache.AttributePredicate(queryAttribute, recordcache.OpEqual, queryEquals),
		}
	}
	if queryLimit > 0 {
		q.Page = &recordcache.Page{Limit: queryLimit, HasLimit: true}
	}

	key := querycache.Key(q)
	records, hit := cache.Get(key)
	if !hit {
		records, err = recordcache.FindRecords(accessor, q)
		if err != nil {
			return err
		}
		cache.Set(key, records, 0)
	}

	printRecords(records)

	stats := cache.GetStats()
	ui.PrintInfo("query cache: %d/%d entries, %.0f%% hit rate", stats.Size, stats.MaxSize, stats.HitRate)
	return nil
}

func printRecords(records []recordcache.Record) {
	if len(records) == 0 {
		ui.PrintWarning("no records matched")
		return
	}

	attrNames := make(map[string]struct{})
	for _, r := range records {
		for name := range r.Attributes {
			attrNames[name] = struct{}{}
		}
	}
	cols := make([]string, 0, len(attrNames))
	for name := range attrNames {
		cols = append(cols, name)
	}
	sort.Strings(cols)

	headers := append([]string{"id"}, cols...)
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, 0, len(headers))
		row = append(row, r.ID)
		for _, c := range cols {
			row = append(row, fmt.Sprint(r.Attributes[c]))
		}
		rows = append(rows, row)
	}
	ui.PrintTable(headers, rows)
	ui.PrintSuccess("%s record(s)", ui.Bold.Sprintf("%d", len(records)))
}
