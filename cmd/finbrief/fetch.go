// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/finbrief/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Fetch a URL and print its extracted text (debug)",
	Long: `Fetch downloads one document and prints the text the pipeline would
extract from it: readability output for HTML, page text for PDFs. An
empty result means the pipeline would skip this source.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := fetch.New(pipelineConfig().Fetch)
		text := f.Fetch(context.Background(), args[0])
		if text == "" {
			return fmt.Errorf("no text extracted from %s", args[0])
		}
		fmt.Println(text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
