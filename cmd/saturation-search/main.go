// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the saturation-search CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ahzs645/saturationsearch/internal/secrets"
	"github.com/ahzs645/saturationsearch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the saturation-search CLI.
var rootCmd = &cobra.Command{
	Use:   "saturation-search",
	Short: "Saturation literature search for watershed research",
	Long: `saturation-search runs a complete literature discovery pass over the
configured academic search providers: it packs the location-term catalog
into provider-sized queries, executes them, removes duplicates, screens
each record against the review criteria, and routes the results into
dated reference-manager collections.

Each stage is also exposed on its own: plan previews the query strategy,
catalog inspects the term vocabulary, and history lists past runs.`,
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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./saturation-search.yaml or ~/.config/saturation-search/config.yaml)")
	rootCmd.PersistentFlags().String("catalog", "", "term catalog YAML (default: built-in Nechako catalog)")
	rootCmd.PersistentFlags().Bool("priority-terms", false, "plan with priority categories only")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("saturation-search")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "saturation-search"))
		}
	}

	viper.SetEnvPrefix("SATURATION_SEARCH")
	viper.AutomaticEnv()

	viper.SetDefault("search.scopus.enabled", true)
	viper.SetDefault("search.web_of_science.enabled", true)
	viper.SetDefault("store.path", "results/saturation.db")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the run configuration from the config file,
// environment, flags, and key files.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	var cfg types.PipelineConfig

	cfg.Search.Scopus = providerConfig("search.scopus")
	cfg.Search.WebOfScience = providerConfig("search.web_of_science")
	cfg.Search.Concurrency = viper.GetInt64("search.concurrency")

	cfg.Plan.MaxChunkSize = viper.GetInt("plan.max_chunk_size")
	cfg.Plan.ForceStrategy = viper.GetString("plan.force_strategy")
	cfg.Plan.UsePriorityTerms = viper.GetBool("plan.use_priority_terms")
	if v, _ := cmd.Flags().GetBool("priority-terms"); v {
		cfg.Plan.UsePriorityTerms = true
	}
	if v, _ := cmd.Flags().GetString("strategy"); v != "" {
		cfg.Plan.ForceStrategy = v
	}

	cfg.Dedup.TitleThreshold = viper.GetFloat64("dedup.title_threshold")
	cfg.Dedup.AbstractThreshold = viper.GetFloat64("dedup.abstract_threshold")

	cfg.Screen.ConfidenceThreshold = viper.GetFloat64("screen.confidence_threshold")
	cfg.Screen.RelevanceThreshold = viper.GetFloat64("screen.relevance_threshold")
	cfg.Screen.MinYear = viper.GetInt("screen.min_year")

	cfg.Zotero.Enabled = viper.GetBool("zotero.enabled")
	cfg.Zotero.APIKey = viper.GetString("zotero.api_key")
	cfg.Zotero.LibraryID = viper.GetString("zotero.library_id")
	cfg.Zotero.LibraryType = viper.GetString("zotero.library_type")

	cfg.Store.Path = viper.GetString("store.path")
	cfg.BaselinePath = viper.GetString("baseline_path")
	cfg.RunTimeout = viper.GetDuration("run_timeout")

	cfg.CatalogPath = viper.GetString("catalog_path")
	if v, _ := cmd.Flags().GetString("catalog"); v != "" {
		cfg.CatalogPath = v
	}

	secrets.Apply(loadedSecrets, &cfg)
	return cfg
}

func providerConfig(prefix string) types.ProviderConfig {
	return types.ProviderConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration(prefix + ".timeout"),
			UserAgent: viper.GetString(prefix + ".user_agent"),
		},
		Enabled:    viper.GetBool(prefix + ".enabled"),
		APIKey:     viper.GetString(prefix + ".api_key"),
		CharBudget: viper.GetInt(prefix + ".char_budget"),
		PageSize:   viper.GetInt(prefix + ".page_size"),
		MaxPages:   viper.GetInt(prefix + ".max_pages"),
		RateLimit:  viper.GetFloat64(prefix + ".rate_limit"),
	}
}

// parseDate accepts YYYY-MM-DD or a bare year.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or YYYY)", s)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
