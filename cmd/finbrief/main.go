// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the finbrief CLI.
// See docs/ARCHITECTURE.md § Pipeline Interface.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/finbrief/internal/secrets"
	"github.com/pdiddy/finbrief/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the finbrief CLI.
var rootCmd = &cobra.Command{
	Use:   "finbrief",
	Short: "Finance research brief pipeline",
	Long: `finbrief plans web research for a finance topic, fetches and extracts
structured notes from the results, and synthesizes them into a sourced
research brief and final report.

The literature subcommand runs the academic review phase: papers are
searched, synthesized, and held for explicit approval before they can
contribute to a brief.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env before .secrets/ so explicit files win over the environment.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./finbrief.yaml or ~/.config/finbrief/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("finbrief")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "finbrief"))
		}
	}

	viper.SetEnvPrefix("FINBRIEF")
	viper.AutomaticEnv()

	viper.SetDefault("ai.model", "gemini-2.5-pro")
	viper.SetDefault("ai.fast_model", "gemini-2.5-flash")
	viper.SetDefault("web_search.max_results", 5)
	viper.SetDefault("scholar.max_per_source", 5)
	viper.SetDefault("research.max_results_per_query", 5)
	viper.SetDefault("research.extract_delay", time.Second)
	viper.SetDefault("literature.max_papers_per_source", 5)
	viper.SetDefault("literature.language", "mn")
	viper.SetDefault("store.data_dir", "data")
	viper.SetDefault("prompts.dir", "prompts")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// secretDefault returns fallback if set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets[key]
}

// pipelineConfig assembles the stage configs from viper and secrets.
func pipelineConfig() types.PipelineConfig {
	ai := types.AIConfig{
		Model:     viper.GetString("ai.model"),
		FastModel: viper.GetString("ai.fast_model"),
		APIKey:    secretDefault(secrets.KeyGemini, viper.GetString("ai.api_key")),
	}

	return types.PipelineConfig{
		WebSearch: types.WebSearchConfig{
			APIKey:     secretDefault(secrets.KeyTavily, viper.GetString("web_search.api_key")),
			MaxResults: viper.GetInt("web_search.max_results"),
		},
		Scholar: types.ScholarConfig{
			MaxPerSource:          viper.GetInt("scholar.max_per_source"),
			SemanticScholarAPIKey: secretDefault(secrets.KeySemanticScholar, viper.GetString("scholar.semantic_scholar_api_key")),
			OpenAlexEmail:         secretDefault(secrets.KeyOpenAlexEmail, viper.GetString("scholar.openalex_email")),
		},
		Fetch: types.FetchConfig{},
		Research: types.ResearchConfig{
			AIConfig:           ai,
			MaxResultsPerQuery: viper.GetInt("research.max_results_per_query"),
			ExtractDelay:       viper.GetDuration("research.extract_delay"),
		},
		Literature: types.LiteratureConfig{
			AIConfig:           ai,
			MaxPapersPerSource: viper.GetInt("literature.max_papers_per_source"),
			Language:           viper.GetString("literature.language"),
		},
		Store: types.StoreConfig{
			DataDir: viper.GetString("store.data_dir"),
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
