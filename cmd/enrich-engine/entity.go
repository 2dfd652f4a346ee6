// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/enrich-engine/internal/resolve"
)

var entityCmd = &cobra.Command{
	Use:   "entity [name]",
	Short: "Resolve a name against the music knowledge graph",
	Long: `Entity searches the knowledge graph for candidates matching a name,
ranked by confidence. Matching escalates from exact label through fuzzy
and substring tiers; --type switches to attribute search by genre, era,
or country.`,
	Args: cobra.ExactArgs(1),
	RunE: runEntity,
}

func init() {
	entityCmd.Flags().String("type", "name", "search type: name, genre, era, or country")
	entityCmd.Flags().Int("limit", 0, "maximum candidates to return")
	entityCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(entityCmd)
}

func runEntity(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gw, err := newGateway(cfg)
	if err != nil {
		return err
	}
	defer gw.Close()

	searchType, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")

	r := resolve.NewResolver(gw, cfg.Resolver, os.Stderr)
	resp, err := r.Search(cmd.Context(), args[0], resolve.Options{
		Type:  resolve.SearchType(searchType),
		Limit: limit,
	})
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(resp.Results) == 0 {
		color.New(color.FgYellow).Printf("no candidates for %q\n", resp.SearchTerm)
	} else {
		color.New(color.FgCyan).Printf("%d candidate(s) for %q (%d total)\n", len(resp.Results), resp.SearchTerm, resp.TotalResults)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCONFIDENCE\tTIER\tDESCRIPTION")
		for _, c := range resp.Results {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n", c.ID, c.Name, c.Confidence, c.Tier, c.Description)
		}
		w.Flush()
	}

	for _, s := range resp.Suggestions {
		fmt.Fprintf(os.Stderr, "suggestion: %s\n", s)
	}
	return nil
}
