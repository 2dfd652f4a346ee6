// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/enrich-engine/internal/agent"
	"github.com/pdiddy/enrich-engine/internal/resolve"
	"github.com/pdiddy/enrich-engine/internal/websearch"
)

// defaultSchema is used when no --schema file is given: a single free-text
// field the agent fills with whatever it finds.
const defaultSchema = `{
  "type": "object",
  "properties": {
    "summary": {"type": "string", "description": "What was found about the topic"}
  },
  "required": ["summary"]
}`

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run one research session against a topic",
	Long: `Research runs the agent loop for a topic: the model searches the web,
scrapes pages, and submits info matching the extraction schema. With
--music the search tool is served by knowledge-graph entity resolution
instead of a web search engine.`,
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("topic", "", "research topic (required)")
	researchCmd.Flags().String("schema", "", "path to a JSON Schema file describing the info to extract")
	researchCmd.Flags().Bool("music", false, "serve the search tool from the music knowledge graph")
	researchCmd.Flags().String("output", "", "write the full session as YAML to this file")
	researchCmd.Flags().Int("max-loops", 0, "override the planning pass ceiling")
	researchCmd.Flags().Bool("require-satisfactory", false, "reject unsatisfactory submissions and keep researching")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" {
		return fmt.Errorf("provide a research topic with --topic")
	}

	schema := json.RawMessage(defaultSchema)
	if schemaPath, _ := cmd.Flags().GetString("schema"); schemaPath != "" {
		s, err := readSchema(schemaPath)
		if err != nil {
			return err
		}
		schema = s
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if maxLoops, _ := cmd.Flags().GetInt("max-loops"); maxLoops > 0 {
		cfg.Agent.MaxLoops = maxLoops
	}
	if require, _ := cmd.Flags().GetBool("require-satisfactory"); require {
		cfg.Agent.RequireSatisfactory = true
	}

	gw, err := newGateway(cfg)
	if err != nil {
		return err
	}
	defer gw.Close()

	m, err := newModel(cfg)
	if err != nil {
		return err
	}

	var provider agent.SearchProvider
	if music, _ := cmd.Flags().GetBool("music"); music {
		provider = agent.NewMusicProvider(resolve.NewResolver(gw, cfg.Resolver, os.Stderr))
	} else {
		provider = websearch.NewDuckDuckGo(gw)
	}

	a := agent.New(m, provider, gw, cfg.Agent, os.Stderr)

	color.New(color.FgCyan).Fprintf(os.Stderr, "researching: %s\n", topic)
	session, err := a.Run(cmd.Context(), topic, schema)
	if err != nil {
		return err
	}

	if session.Info != nil {
		color.New(color.FgGreen).Fprintf(os.Stderr, "completed in %d iteration(s)\n", session.Iterations)
		pretty, err := json.MarshalIndent(session.Info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(pretty))
	} else {
		color.New(color.FgYellow).Fprintf(os.Stderr, "no info extracted after %d iteration(s)\n", session.Iterations)
	}
	if session.Verdict != nil && !session.Verdict.IsSatisfactory {
		color.New(color.FgYellow).Fprintln(os.Stderr, "verdict: unsatisfactory")
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		data, err := yaml.Marshal(session)
		if err != nil {
			return fmt.Errorf("marshaling session: %w", err)
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return fmt.Errorf("writing session: %w", err)
		}
		fmt.Fprintf(os.Stderr, "session written to %s\n", output)
	}
	return nil
}

// readSchema loads an extraction schema file, accepting JSON directly and
// converting YAML to JSON otherwise.
func readSchema(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	if json.Valid(data) {
		return data, nil
	}

	var parsed any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("schema file %s is neither valid JSON nor YAML: %w", path, err)
	}
	converted, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("converting schema to JSON: %w", err)
	}
	return converted, nil
}
