package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/matdex-io/matdex"
)

var defaultColumns = []string{
	"entry_id",
	"results.material.chemical_formula_hill",
	"upload_create_time",
}

var searchCmd = &cobra.Command{
	Use:   "search [expression...]",
	Short: "Search entries or materials",
	Long: `Search entries or materials.

Positional arguments are search-bar expressions ("band_gap > 0.5",
"1 < n_elements < 5"). Use --filter for encoded assignments
(elements=Si,O or band_gap=gt:0.5).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resource, _ := cmd.Flags().GetString("resource")
		filterFlags, _ := cmd.Flags().GetStringArray("filter")
		orderBy, _ := cmd.Flags().GetString("order-by")
		desc, _ := cmd.Flags().GetBool("desc")
		page, _ := cmd.Flags().GetInt("page")
		pageSize, _ := cmd.Flags().GetInt("page-size")
		after, _ := cmd.Flags().GetString("after")
		aggs, _ := cmd.Flags().GetStringSlice("agg")
		columns, _ := cmd.Flags().GetStringSlice("column")

		res := matdex.Entries
		if resource == "materials" {
			res = matdex.Materials
		}

		b := client.Search(res)
		for _, expr := range args {
			b = b.Expr(expr)
		}
		for _, f := range filterFlags {
			name, value, ok := strings.Cut(f, "=")
			if !ok {
				fmt.Fprintf(os.Stderr, "Error: invalid filter %q (expected name=value)\n", f)
				os.Exit(1)
			}
			b = b.Where(name, value)
		}
		if orderBy != "" {
			order := matdex.Asc
			if desc {
				order = matdex.Desc
			}
			b = b.OrderBy(orderBy, order)
		}
		if after != "" {
			b = b.After(after)
		} else if page > 0 {
			b = b.Page(page)
		}
		if pageSize > 0 {
			b = b.PageSize(pageSize)
		}
		if len(aggs) > 0 {
			b = b.Aggregate(aggs...)
		}
		if len(columns) == 0 {
			columns = defaultColumns
		}
		b = b.Require(columns...)

		results, err := b.Do(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(results)
			return nil
		}
		printResultTable(results, columns)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringP("resource", "r", "entries", "resource to search (entries or materials)")
	searchCmd.Flags().StringArrayP("filter", "f", nil, "filter assignment (name=value, repeatable)")
	searchCmd.Flags().String("order-by", "", "sort column")
	searchCmd.Flags().Bool("desc", false, "sort descending")
	searchCmd.Flags().Int("page", 0, "page number")
	searchCmd.Flags().Int("page-size", 20, "rows per page")
	searchCmd.Flags().String("after", "", "continue from a page_after_value cursor")
	searchCmd.Flags().StringSlice("agg", nil, "request aggregation buckets for a filter (repeatable)")
	searchCmd.Flags().StringSliceP("column", "c", nil, "row paths to show (repeatable)")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printResultTable(results *matdex.Results, columns []string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	headers := make([]string, len(columns))
	for i, c := range columns {
		if idx := strings.LastIndex(c, "."); idx >= 0 {
			headers[i] = c[idx+1:]
		} else {
			headers[i] = c
		}
	}
	fmt.Fprintln(w, strings.ToUpper(strings.Join(headers, "\t")))

	for _, row := range results.Rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = formatCell(row.Get(c))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()

	fmt.Printf("\n%d of %d results", len(results.Rows), results.Total)
	if results.HasMore() {
		fmt.Printf(" (continue with --after %s)", results.NextPageAfterValue)
	}
	fmt.Println()

	for name, buckets := range results.Aggregations {
		fmt.Printf("\n%s:\n", name)
		for _, b := range buckets {
			fmt.Printf("  %-24s %d\n", b.Value, b.Count)
		}
	}
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		return val
	case float64:
		return fmt.Sprintf("%g", val)
	case []any:
		parts := make([]string, len(val))
		for i, el := range val {
			parts[i] = formatCell(el)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", val)
	}
}
