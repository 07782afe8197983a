package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List the registered search filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		group, _ := cmd.Flags().GetString("group")

		infos := client.Filters()
		if group != "" {
			filtered := infos[:0]
			for _, fi := range infos {
				if fi.Group == group {
					filtered = append(filtered, fi)
				}
			}
			infos = filtered
		}

		if jsonOutput {
			printJSON(infos)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTYPE\tGROUP\tUNIT")
		for _, fi := range infos {
			name := fi.Name
			if fi.Abbrev != "" {
				name = fmt.Sprintf("%s (%s)", fi.Name, fi.Abbrev)
			}
			dtype := string(fi.DType)
			if fi.Multiple {
				dtype += "[]"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, dtype, fi.Group, fi.Unit)
		}
		w.Flush()

		for _, fi := range infos {
			if len(fi.Options) == 0 {
				continue
			}
			values := make([]string, len(fi.Options))
			for i, o := range fi.Options {
				values[i] = o.Value
			}
			fmt.Printf("\n%s: %s\n", fi.Name, strings.Join(values, ", "))
		}
		return nil
	},
}

func init() {
	filtersCmd.Flags().StringP("group", "g", "", "only show filters in this group")
}
