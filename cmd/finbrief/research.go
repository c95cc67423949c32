// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/finbrief/internal/fetch"
	"github.com/pdiddy/finbrief/internal/llm"
	"github.com/pdiddy/finbrief/internal/prompts"
	"github.com/pdiddy/finbrief/internal/research"
	"github.com/pdiddy/finbrief/internal/reviewstore"
	"github.com/pdiddy/finbrief/internal/websearch"
	"github.com/pdiddy/finbrief/internal/writer"
	"github.com/pdiddy/finbrief/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run a research pipeline for a finance topic",
	Long: `Research plans search queries for the topic, fetches and extracts
structured notes from web sources, and synthesizes them into a brief
with numbered references.

With --review, an approved literature review from the store is merged
into the brief; unapproved reviews are silently ignored. With --report,
the writer pass turns the brief into a final report.`,
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("topic", "", "research topic (required)")
	researchCmd.Flags().String("language", "", "output language code for the report (default from config)")
	researchCmd.Flags().String("context-file", "", "file with additional context to include as a note")
	researchCmd.Flags().Int64("review", 0, "stored literature review id to merge (must be approved)")
	researchCmd.Flags().Bool("report", false, "run the writer pass and print the final report")
	researchCmd.Flags().Bool("json", false, "output the research result as JSON")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" {
		return fmt.Errorf("--topic is required")
	}

	cfg := pipelineConfig()
	if cfg.Research.APIKey == "" {
		return fmt.Errorf("Gemini API key missing: set .secrets/gemini-api-key or ai.api_key in finbrief.yaml")
	}
	if cfg.WebSearch.APIKey == "" {
		return fmt.Errorf("Tavily API key missing: set .secrets/tavily-api-key")
	}

	language, _ := cmd.Flags().GetString("language")
	if language == "" {
		language = cfg.Literature.Language
	}

	req := research.Request{Topic: topic, Language: language}
	if contextFile, _ := cmd.Flags().GetString("context-file"); contextFile != "" {
		data, err := os.ReadFile(contextFile)
		if err != nil {
			return fmt.Errorf("reading context file: %w", err)
		}
		req.AdditionalContext = string(data)
	}

	p := prompts.Load(viper.GetString("prompts.dir"))
	o := &research.Orchestrator{
		LLM:     llm.NewGemini(cfg.Research.APIKey),
		Web:     websearch.New(cfg.WebSearch),
		Fetcher: fetch.New(cfg.Fetch),
		Prompts: p,
		Config:  cfg.Research,
	}

	ctx := context.Background()

	var result types.ResearchResult
	var err error
	if reviewID, _ := cmd.Flags().GetInt64("review"); reviewID != 0 {
		store, serr := reviewstore.New(cfg.Store)
		if serr != nil {
			return serr
		}
		defer store.Close()

		stored, serr := store.Get(ctx, reviewID)
		if serr != nil {
			return serr
		}
		if !stored.Review.Approved() {
			fmt.Fprintf(os.Stderr, "warning: review %d is %s, proceeding without literature\n",
				reviewID, stored.Review.State)
		}
		result, err = o.RunWithLiterature(ctx, req, stored.Review, os.Stderr)
	} else {
		result, err = o.Run(ctx, req, os.Stderr)
	}
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(result.Brief)
	if len(result.References) > 0 {
		fmt.Println("\nReferences:")
		for i, ref := range result.References {
			fmt.Printf("[%d] %s\n", i+1, ref)
		}
	}

	if report, _ := cmd.Flags().GetBool("report"); report {
		draft, err := writer.Draft(ctx, o.LLM, cfg.Research.AIConfig, p,
			topic, result.Brief, result.References, language, os.Stderr)
		if err != nil {
			return err
		}
		fmt.Print("\n---\n\n")
		fmt.Println(draft)
	}
	return nil
}
