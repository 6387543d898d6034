package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanshika/bizflow/internal/service"
)

// File names used by WriteDataset.
const (
	BusinessesFile   = "businesses.json"
	TransactionsFile = "transactions.json"
)

// WriteDataset stores the dataset as two JSON arrays under dir. Each file is
// replaced atomically so an interrupted run never leaves a truncated file.
func WriteDataset(dataset Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, BusinessesFile), dataset.Businesses); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, TransactionsFile), dataset.Transactions)
}

// ReadTransactions loads a JSON array of transaction inputs, such as the
// TransactionsFile written by WriteDataset.
func ReadTransactions(path string) ([]service.TransactionInput, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var txs []service.TransactionInput
	if err := json.NewDecoder(file).Decode(&txs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return txs, nil
}

func writeJSON(path string, data any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
