// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/finbrief/internal/scholar"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search academic APIs for papers",
	Long: `Search queries academic APIs (OpenAlex, Semantic Scholar) for papers
matching a query. Results are deduplicated across sources by DOI.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("query", "", "free-text search query")
	searchCmd.Flags().Int("max-per-source", 0, "papers per source (0 = config default)")
	searchCmd.Flags().StringSlice("source", nil, "sources to query: openalex, semantic_scholar (default both)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}
	if query == "" {
		return fmt.Errorf("provide a search query")
	}

	cfg := pipelineConfig()
	maxPerSource, _ := cmd.Flags().GetInt("max-per-source")
	if maxPerSource <= 0 {
		maxPerSource = cfg.Scholar.MaxPerSource
	}
	sources, _ := cmd.Flags().GetStringSlice("source")

	client := scholar.New(cfg.Scholar)
	out := client.Search(context.Background(), query, maxPerSource, sources, os.Stderr)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out.Papers)
	}

	if len(out.Papers) == 0 {
		fmt.Println("No papers found.")
		return nil
	}

	fmt.Printf("%-50s  %-6s  %-9s  %-16s  %s\n", "Title", "Year", "Citations", "Source", "DOI")
	fmt.Println(strings.Repeat("-", 110))
	for _, p := range out.Papers {
		title := p.Title
		if len([]rune(title)) > 50 {
			title = string([]rune(title)[:47]) + "..."
		}
		fmt.Printf("%-50s  %-6d  %-9d  %-16s  %s\n", title, p.Year, p.CitationCount, p.Source, p.DOI)
	}
	fmt.Printf("\n%d papers (%d duplicates removed)\n", len(out.Papers), out.DupsRemoved)

	if len(out.SourceErrors) > 0 {
		for _, e := range out.SourceErrors {
			fmt.Fprintf(os.Stderr, "source error: %s\n", e)
		}
	}
	return nil
}
