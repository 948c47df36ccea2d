// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahzs645/saturationsearch/internal/pipeline"
	"github.com/ahzs645/saturationsearch/internal/search"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a full saturation search",
	Long: `Run executes the whole pipeline: query planning, provider search,
deduplication, baseline comparison, automated screening, and delivery to
the reference manager. The run is persisted to the local store so
successive searches can be compared.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)

	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	dr, err := dateRange(from, to)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	report, err := p.Run(context.Background(), dr)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling report: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Print(report.FormatText())
	return nil
}

func dateRange(from, to string) (search.DateRange, error) {
	var dr search.DateRange
	var err error
	if dr.From, err = parseDate(from); err != nil {
		return dr, err
	}
	if dr.To, err = parseDate(to); err != nil {
		return dr, err
	}
	return dr, nil
}

func buildLogger(cmd *cobra.Command) (*zap.Logger, error) {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func init() {
	runCmd.Flags().String("from", "1930", "publication date range start (YYYY-MM-DD or YYYY)")
	runCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD or YYYY)")
	runCmd.Flags().String("strategy", "", "force query strategy (direct, progressive, chunked)")
	runCmd.Flags().Bool("json", false, "output the run report as JSON")
	runCmd.Flags().Bool("verbose", false, "verbose logging")

	rootCmd.AddCommand(runCmd)
}
