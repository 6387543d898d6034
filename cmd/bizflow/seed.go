package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vanshika/bizflow/internal/generator"
	"github.com/vanshika/bizflow/internal/service"
)

func seedCmd() *cobra.Command {
	def := generator.DefaultSeedConfig()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create synthetic businesses and historical transactions",
		Long: `Synthesises a business directory with display names and a backlog of
transactions between them. By default the data is written to the graph store;
with --out it is written to businesses.json and transactions.json instead.`,
		RunE: runSeed,
	}

	cmd.Flags().Int("businesses", def.NumBusinesses, "Number of businesses to create")
	cmd.Flags().Int("transactions", def.NumTransactions, "Number of historical transactions to create")
	cmd.Flags().Duration("history", def.History, "How far back historical transactions may be dated")
	cmd.Flags().Int64("seed", def.Seed, "Random seed; 0 uses the current time")
	cmd.Flags().String("out", "", "Write the dataset to this directory instead of the graph store")
	cmd.Flags().Int("workers", 4, "Concurrent writers for historical transactions")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	numBusinesses, _ := flags.GetInt("businesses")
	numTransactions, _ := flags.GetInt("transactions")
	history, _ := flags.GetDuration("history")
	seed, _ := flags.GetInt64("seed")
	outDir, _ := flags.GetString("out")
	workers, _ := flags.GetInt("workers")

	seeder := generator.NewSeeder(generator.SeedConfig{
		NumBusinesses:   numBusinesses,
		NumTransactions: numTransactions,
		History:         history,
		Seed:            seed,
	})
	dataset, err := seeder.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate dataset: %w", err)
	}

	if outDir != "" {
		if err := generator.WriteDataset(dataset, outDir); err != nil {
			return err
		}
		logger.Info("dataset written", "dir", outDir, "businesses", len(dataset.Businesses), "transactions", len(dataset.Transactions))
		return nil
	}

	rt, err := buildRuntime(ctx, appCfg, logger, nil)
	if err != nil {
		return err
	}
	defer rt.Close(logger)

	bar := newProgressBar(cmd, len(dataset.Businesses), "businesses")
	for _, b := range dataset.Businesses {
		if err := rt.repo.UpsertBusiness(ctx, b); err != nil {
			return err
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if err := rt.directory.Invalidate(ctx); err != nil {
		logger.Warn("business list cache not invalidated", "error", err)
	}

	if len(dataset.Transactions) > 0 {
		if err := ingestWithProgress(cmd, rt.service, dataset.Transactions, workers); err != nil {
			return err
		}
	}

	logger.Info("seed complete", "businesses", len(dataset.Businesses), "transactions", len(dataset.Transactions))
	return nil
}

func ingestWithProgress(cmd *cobra.Command, submitter service.Submitter, txs []service.TransactionInput, workers int) error {
	bar := newProgressBar(cmd, len(txs), "transactions")
	ingestor := service.NewBulkIngestor(submitter, workers)
	ingestor.OnProgress(func(int) { _ = bar.Add(1) })

	err := ingestor.IngestTransactions(cmd.Context(), txs)
	_ = bar.Finish()
	if err != nil {
		return fmt.Errorf("ingest transactions: %w", err)
	}
	return nil
}

func newProgressBar(cmd *cobra.Command, total int, what string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Writing "+what),
		progressbar.OptionClearOnFinish(),
	)
}
