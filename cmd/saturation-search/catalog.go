// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ahzs645/saturationsearch/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the location-term catalog",
	Long: `Catalog prints the term vocabulary the planner draws from: categories,
raw term counts, and the expanded counts after accent and watercourse
variants are generated.`,
	RunE: runCatalog,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cat := catalog.Nechako()
	if path, _ := cmd.Flags().GetString("catalog"); path != "" {
		loaded, err := catalog.Load(path)
		if err != nil {
			return err
		}
		cat = loaded
	}

	stats := cat.Stats()
	fmt.Printf("Categories:     %d\n", stats.Categories)
	fmt.Printf("Raw terms:      %d\n", stats.RawTerms)
	fmt.Printf("Expanded terms: %d\n", stats.ExpandedTerms)
	fmt.Printf("Unique terms:   %d\n\n", stats.UniqueTerms)

	names := make([]string, 0, len(stats.PerCategoryRaw))
	for name := range stats.PerCategoryRaw {
		names = append(names, name)
	}
	sort.Strings(names)

	priority := make(map[string]bool, len(cat.Priority))
	for _, name := range cat.Priority {
		priority[name] = true
	}

	for _, name := range names {
		marker := " "
		if priority[name] {
			marker = "*"
		}
		fmt.Printf("  %s %-20s %4d terms\n", marker, name, stats.PerCategoryRaw[name])
	}
	if len(cat.Priority) > 0 {
		fmt.Println("\n  * priority category")
	}

	if term, _ := cmd.Flags().GetString("expand"); term != "" {
		t := catalog.Term{Canonical: term}
		fmt.Printf("\nExpansions of %q:\n", term)
		for _, v := range t.Expand() {
			fmt.Printf("  %s\n", v)
		}
	}
	return nil
}

func init() {
	catalogCmd.Flags().String("expand", "", "show the generated variants for one term")

	rootCmd.AddCommand(catalogCmd)
}
