// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ahzs645/saturationsearch/internal/store"
	"github.com/ahzs645/saturationsearch/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past runs from the local store",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(types.StoreConfig{Path: viper.GetString("store.path")})
	if err != nil {
		return err
	}
	defer s.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := s.History(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Printf("%-5s %-22s %-12s %8s %8s %8s %8s\n",
		"ID", "STARTED", "STRATEGY", "SEGMENTS", "UNIQUE", "INCLUDED", "RECALL")
	for _, run := range runs {
		fmt.Printf("%-5d %-22s %-12s %8d %8d %8d %8.3f\n",
			run.ID, run.StartedAt, run.Strategy, run.Segments,
			run.UniqueRecords, run.Included, run.Recall)
	}
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")

	rootCmd.AddCommand(historyCmd)
}
