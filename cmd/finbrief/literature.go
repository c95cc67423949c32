// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/finbrief/internal/literature"
	"github.com/pdiddy/finbrief/internal/llm"
	"github.com/pdiddy/finbrief/internal/prompts"
	"github.com/pdiddy/finbrief/internal/reviewstore"
	"github.com/pdiddy/finbrief/internal/scholar"
	"github.com/pdiddy/finbrief/pkg/types"
)

var literatureCmd = &cobra.Command{
	Use:   "literature",
	Short: "Manage the literature review phase (run, approve, reject, show, list)",
	Long: `Literature runs the academic review phase: the topic is translated to
an English search query, academic databases are searched, and the papers
are synthesized into a review held in the generated state.

A review contributes to research output only after 'literature approve'.
Approved and rejected are terminal states.`,
}

// --- run subcommand ---

var literatureRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate a literature review for a topic and store it for approval",
	RunE:  runLiteratureRun,
}

func runLiteratureRun(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" {
		return fmt.Errorf("--topic is required")
	}

	cfg := pipelineConfig()
	if cfg.Literature.APIKey == "" {
		return fmt.Errorf("Gemini API key missing: set .secrets/gemini-api-key or ai.api_key in finbrief.yaml")
	}

	language, _ := cmd.Flags().GetString("language")
	if language != "" {
		cfg.Literature.Language = language
	}

	s := &literature.Synthesizer{
		LLM:         llm.NewGemini(cfg.Literature.APIKey),
		Scholar:     scholar.New(cfg.Scholar),
		Config:      cfg.Literature,
		DomainGuard: prompts.Load(viper.GetString("prompts.dir")).DomainGuard,
	}

	ctx := context.Background()
	review, err := s.Run(ctx, topic, os.Stderr)
	if err != nil {
		return err
	}

	store, err := reviewstore.New(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Save(ctx, topic, cfg.Literature.Language, review)
	if err != nil {
		return err
	}

	fmt.Println(literature.Format(review, cfg.Literature.Language))
	fmt.Printf("\nSaved as review %d (state: %s). Approve with: finbrief literature approve %d\n",
		id, review.State, id)
	return nil
}

// --- approve / reject subcommands ---

var literatureApproveCmd = &cobra.Command{
	Use:   "approve [id]",
	Short: "Approve a generated literature review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decideReview(args[0], types.DecisionApprove)
	},
}

var literatureRejectCmd = &cobra.Command{
	Use:   "reject [id]",
	Short: "Reject a generated literature review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decideReview(args[0], types.DecisionReject)
	},
}

func decideReview(arg string, decision types.ReviewDecision) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid review id %q", arg)
	}

	store, err := reviewstore.New(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer store.Close()

	state, err := store.SetState(context.Background(), id, decision)
	if err != nil {
		return err
	}
	fmt.Printf("Review %d is now %s.\n", id, state)
	return nil
}

// --- show subcommand ---

var literatureShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a stored literature review",
	Args:  cobra.ExactArgs(1),
	RunE:  runLiteratureShow,
}

func runLiteratureShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid review id %q", args[0])
	}

	store, err := reviewstore.New(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer store.Close()

	stored, err := store.Get(context.Background(), id)
	if err != nil {
		return err
	}

	if yamlOutput, _ := cmd.Flags().GetBool("yaml"); yamlOutput {
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(stored.Review)
	}

	fmt.Println(literature.Format(stored.Review, stored.Language))
	return nil
}

// --- list subcommand ---

var literatureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored literature reviews",
	RunE:  runLiteratureList,
}

func runLiteratureList(cmd *cobra.Command, args []string) error {
	store, err := reviewstore.New(pipelineConfig().Store)
	if err != nil {
		return err
	}
	defer store.Close()

	reviews, err := store.List(context.Background())
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		fmt.Println("No reviews stored.")
		return nil
	}

	fmt.Printf("%-4s  %-10s  %-6s  %-40s  %s\n", "ID", "State", "Papers", "Topic", "Created")
	for _, r := range reviews {
		topic := r.Topic
		if len([]rune(topic)) > 40 {
			topic = string([]rune(topic)[:37]) + "..."
		}
		fmt.Printf("%-4d  %-10s  %-6d  %-40s  %s\n",
			r.ID, r.Review.State, len(r.Review.Papers), topic, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func init() {
	literatureRunCmd.Flags().String("topic", "", "research topic (required)")
	literatureRunCmd.Flags().String("language", "", "output language code (default from config)")

	literatureShowCmd.Flags().Bool("yaml", false, "output the review as YAML")

	literatureCmd.AddCommand(literatureRunCmd)
	literatureCmd.AddCommand(literatureApproveCmd)
	literatureCmd.AddCommand(literatureRejectCmd)
	literatureCmd.AddCommand(literatureShowCmd)
	literatureCmd.AddCommand(literatureListCmd)

	rootCmd.AddCommand(literatureCmd)
}
