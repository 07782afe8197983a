package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matdex-io/matdex"
	"github.com/matdex-io/matdex/internal/version"
)

var (
	baseURL    string
	token      string
	jsonOutput bool

	client *matdex.Client
)

func defaultBaseURL() string {
	if s := os.Getenv("MATDEX_API_URL"); s != "" {
		return s
	}
	return "https://nomad-lab.eu/prod/v1/api/v1"
}

func defaultToken() string {
	return os.Getenv("MATDEX_API_TOKEN")
}

var rootCmd = &cobra.Command{
	Use:     "mdx <command>",
	Short:   "CLI client for materials-science search APIs",
	Version: version.String(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := matdex.New(context.Background(),
			matdex.WithBaseURL(baseURL),
			matdex.WithToken(token),
		)
		if err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}
		client = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if client != nil {
			client.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", defaultBaseURL(), "upstream API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", defaultToken(), "upstream API bearer token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(filtersCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(parseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
