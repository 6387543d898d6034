package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanshika/bizflow/internal/generator"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write one batch of random transactions between known businesses",
		RunE:  runGenerate,
	}
	cmd.Flags().Int("count", 10, fmt.Sprintf("Transactions in the batch (1-%d)", generator.MaxBatchSize))
	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	count, _ := cmd.Flags().GetInt("count")
	if count < 1 || count > generator.MaxBatchSize {
		return fmt.Errorf("--count must be between 1 and %d", generator.MaxBatchSize)
	}

	rt, err := buildRuntime(ctx, appCfg, logger, nil)
	if err != nil {
		return err
	}
	defer rt.Close(logger)

	gen := generator.New(rt.directory, rt.service,
		generator.WithSeed(appCfg.Generator.Seed),
		generator.WithLogger(logger),
	)
	txs, err := gen.GenerateBatch(ctx, count)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(txs)
}
