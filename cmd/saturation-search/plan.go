// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahzs645/saturationsearch/internal/pipeline"
	"github.com/ahzs645/saturationsearch/internal/queryplan"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview the query plan without searching",
	Long: `Plan builds the query plan the run command would execute and prints the
feasibility analysis for all three strategies: how many terms each covers,
how many API calls it costs, and which one is recommended. Nothing is sent
to any provider.`,
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)

	p, err := pipeline.New(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer p.Close()

	plan, analysis, err := p.PlanOnly()
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		out := struct {
			Plan     queryplan.Plan      `json:"plan"`
			Analysis *queryplan.Analysis `json:"analysis"`
		}{plan, analysis}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling plan: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Recommended strategy: %s\n\n", analysis.Recommended)
	for _, s := range []queryplan.Strategy{queryplan.StrategyDirect, queryplan.StrategyProgressive, queryplan.StrategyChunked} {
		st := analysis.Strategies[s]
		status := "feasible"
		if !st.Feasible {
			status = "not feasible"
		}
		fmt.Printf("  %-12s %-13s %4d terms covered, %3d excluded, %3d API calls\n",
			s, status, st.TermCount, st.Excluded, st.APICalls)
	}
	fmt.Printf("\n%s\n\n", analysis.Reasoning)

	fmt.Printf("Selected plan: %s, %d segment(s)\n", plan.Strategy, len(plan.Segments))
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		for _, seg := range plan.Segments {
			fmt.Printf("  %-24s %4d terms, %5d chars\n", seg.ID, seg.TermCount, seg.CharLength)
		}
	}
	return nil
}

func init() {
	planCmd.Flags().String("strategy", "", "force query strategy (direct, progressive, chunked)")
	planCmd.Flags().Bool("json", false, "output the plan as JSON")
	planCmd.Flags().Bool("verbose", false, "list every segment")

	rootCmd.AddCommand(planCmd)
}
