package generator

import "time"

// SeedConfig drives the synthetic business dataset.
type SeedConfig struct {
	NumBusinesses   int
	NumTransactions int
	History         time.Duration
	Seed            int64
}

// DefaultSeedConfig returns a small demo-sized directory with some history.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		NumBusinesses:   50,
		NumTransactions: 500,
		History:         30 * 24 * time.Hour,
		Seed:            42,
	}
}
