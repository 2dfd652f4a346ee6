// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/enrich-engine/internal/index"
	"github.com/pdiddy/enrich-engine/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index [name]",
	Short: "Build an encyclopedia page bundle for an entity",
	Long: `Index discovers and extracts the entity's primary encyclopedia pages,
then album and song pages found in their text, and scores the bundle's
coverage.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().String("id", "", "knowledge-graph id to attach to the result")
	indexCmd.Flags().Bool("json", false, "output the full bundle as JSON")

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gw, err := newGateway(cfg)
	if err != nil {
		return err
	}
	defer gw.Close()

	entityID, _ := cmd.Flags().GetString("id")
	ix := index.NewIndexer(gw, cfg.Indexer, os.Stderr)
	result := ix.Index(cmd.Context(), args[0], entityID)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		printIndexSummary(result)
	}

	if result.Status == types.IndexError {
		return fmt.Errorf("indexing failed: %s", result.Error)
	}
	return nil
}

func printIndexSummary(result types.IndexResult) {
	if result.Status == types.IndexError {
		color.New(color.FgRed).Printf("error indexing %q: %s\n", result.EntityName, result.Error)
		return
	}

	color.New(color.FgCyan).Printf("indexed %q: %d page(s), confidence %.2f\n",
		result.EntityName, result.TotalPages, result.Confidence)
	for _, p := range result.PrimaryPages {
		fmt.Printf("  profile  %s (%d words)\n", p.Title, p.WordCount)
	}
	for _, p := range result.AlbumPages {
		fmt.Printf("  album    %s (%d words)\n", p.Title, p.WordCount)
	}
	for _, p := range result.SongPages {
		fmt.Printf("  song     %s (%d words)\n", p.Title, p.WordCount)
	}
}
