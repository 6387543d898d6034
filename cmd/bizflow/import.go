package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vanshika/bizflow/internal/generator"
)

var errMissingDataset = errors.New("dataset not found")

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replay a JSON file of transactions through the ingestion path",
		Long: `Reads a JSON array of {from, to, amount, timestamp} objects and submits each
through the same validation, retry and notification path as the API.`,
		RunE: runImport,
	}

	cmd.Flags().String("file", "", "Path to transactions.json")
	cmd.Flags().String("dataset-dir", "./seed-data", "Directory containing transactions.json (used when --file is empty)")
	cmd.Flags().Int("workers", 4, "Number of concurrent workers for ingestion")

	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	file, _ := cmd.Flags().GetString("file")
	datasetDir, _ := cmd.Flags().GetString("dataset-dir")
	workers, _ := cmd.Flags().GetInt("workers")

	path, err := resolveDatasetPath(datasetDir, file)
	if err != nil {
		return err
	}

	txs, err := generator.ReadTransactions(path)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return fmt.Errorf("%w: %s is empty", errMissingDataset, path)
	}

	rt, err := buildRuntime(ctx, appCfg, logger, nil)
	if err != nil {
		return err
	}
	defer rt.Close(logger)

	logger.Info("importing transactions", "path", path, "count", len(txs), "workers", workers)
	if err := ingestWithProgress(cmd, rt.service, txs, workers); err != nil {
		return err
	}
	logger.Info("import complete", "count", len(txs))
	return nil
}

func resolveDatasetPath(dir, file string) (string, error) {
	path := file
	if path == "" {
		path = filepath.Join(dir, generator.TransactionsFile)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", errMissingDataset, path)
	}
	return path, nil
}
