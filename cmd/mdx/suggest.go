package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <input>",
	Short: "Suggest filter names and values for a partial input",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		quantities, _ := cmd.Flags().GetStringSlice("quantity")
		input := args[0]

		if len(quantities) == 0 {
			names := client.FilterNames(input)
			if jsonOutput {
				printJSON(map[string]any{"names": names})
				return nil
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		}

		suggestions, err := client.Suggest(context.Background(), quantities, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			printJSON(suggestions)
			return nil
		}
		for name, values := range suggestions {
			fmt.Printf("%s:\n", name)
			for _, s := range values {
				fmt.Printf("  %s\n", s.Value)
			}
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().StringSliceP("quantity", "q", nil, "suggest values for this filter (repeatable; without it, filter names are suggested)")
}
