// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the enrich-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/enrich-engine/internal/gateway"
	"github.com/pdiddy/enrich-engine/internal/model"
	"github.com/pdiddy/enrich-engine/internal/secrets"
	"github.com/pdiddy/enrich-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the named secret.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the enrich-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "enrich-engine",
	Short: "Autonomous research agent for structured data enrichment",
	Long: `enrich-engine fills a caller-supplied schema with information researched
from the web and public knowledge bases. A planner model chooses between
web search, page scraping, and final submission; entity resolution and
content indexing expose the knowledge-base surfaces directly.

Each surface is a subcommand: research runs a full agent session, entity
resolves names against the knowledge graph, and index builds a page bundle
for an entity.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./enrich-engine.yaml or ~/.config/enrich-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("enrich-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "enrich-engine"))
		}
	}

	viper.SetEnvPrefix("ENRICH_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig unmarshals the full engine configuration from viper.
func loadConfig() (types.EngineConfig, error) {
	var cfg types.EngineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}
	return cfg, nil
}

// newGateway builds the shared resource gateway. One instance serves every
// service in the process.
func newGateway(cfg types.EngineConfig) (*gateway.Gateway, error) {
	return gateway.New(cfg.Gateway, os.Stderr)
}

// newModel builds the model client, pulling the API key from .secrets/
// when the configuration leaves it empty.
func newModel(cfg types.EngineConfig) (*model.Client, error) {
	mc := cfg.Model
	mc.APIKey = secretDefault(secrets.OpenAIKey, mc.APIKey)
	return model.NewClient(mc)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
