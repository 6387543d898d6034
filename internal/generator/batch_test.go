package generator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/bizflow/internal/domain"
	"github.com/vanshika/bizflow/internal/logging"
	"github.com/vanshika/bizflow/internal/service"
)

type staticLister struct {
	businesses []domain.Business
	err        error
}

func (s staticLister) ListAll(context.Context) ([]domain.Business, error) {
	return s.businesses, s.err
}

type fakeSubmitter struct {
	mu     sync.Mutex
	inputs []service.TransactionInput
	calls  atomic.Int64
	failAt int64
	err    error
	delay  time.Duration
}

func (f *fakeSubmitter) Submit(ctx context.Context, input service.TransactionInput) (domain.Transaction, error) {
	n := f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failAt > 0 && n == f.failAt {
		return domain.Transaction{}, f.err
	}
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()
	return domain.Transaction{From: input.From, To: input.To, Amount: input.Amount, Timestamp: input.Timestamp}, nil
}

func (f *fakeSubmitter) written() []service.TransactionInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.TransactionInput(nil), f.inputs...)
}

func threeBusinesses() staticLister {
	return staticLister{businesses: []domain.Business{
		{ID: "BIZ-1", Name: "Acme Logistics"},
		{ID: "BIZ-2", Name: "Globex Foods"},
		{ID: "BIZ-3", Name: "Initech Supply"},
	}}
}

func TestGenerateBatch_DrawsValidTransactions(t *testing.T) {
	sub := &fakeSubmitter{}
	gen := New(threeBusinesses(), sub, WithSeed(11), WithLogger(logging.Discard()))

	txs, err := gen.GenerateBatch(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, txs, 5)

	known := map[string]bool{"BIZ-1": true, "BIZ-2": true, "BIZ-3": true}
	for _, tx := range txs {
		assert.True(t, known[tx.From], tx.From)
		assert.True(t, known[tx.To], tx.To)
		assert.NotEqual(t, tx.From, tx.To)
		assert.GreaterOrEqual(t, tx.Amount, 100.0)
		assert.LessOrEqual(t, tx.Amount, 10000.0)
		assert.Equal(t, tx.Amount, float64(int(tx.Amount)), "amounts are whole numbers")
		assert.False(t, tx.Timestamp.IsZero())
	}
	assert.Len(t, sub.written(), 5)
}

func TestGenerateBatch_TwoBusinessesAlwaysPair(t *testing.T) {
	sub := &fakeSubmitter{}
	lister := staticLister{businesses: []domain.Business{{ID: "A"}, {ID: "B"}, {ID: "A"}}}
	gen := New(lister, sub, WithSeed(3), WithLogger(logging.Discard()))

	txs, err := gen.GenerateBatch(context.Background(), 20)
	require.NoError(t, err)
	for _, tx := range txs {
		assert.ElementsMatch(t, []string{"A", "B"}, []string{tx.From, tx.To})
	}
}

func TestGenerateBatch_InsufficientData(t *testing.T) {
	for name, lister := range map[string]staticLister{
		"empty":         {},
		"single":        {businesses: []domain.Business{{ID: "BIZ-1"}}},
		"duplicate ids": {businesses: []domain.Business{{ID: "BIZ-1"}, {ID: "BIZ-1"}}},
	} {
		t.Run(name, func(t *testing.T) {
			sub := &fakeSubmitter{}
			gen := New(lister, sub, WithLogger(logging.Discard()))

			_, err := gen.GenerateBatch(context.Background(), 3)
			require.ErrorIs(t, err, domain.ErrInsufficientData)
			assert.Zero(t, sub.calls.Load(), "no writes may be attempted")
		})
	}
}

func TestGenerateBatch_InvalidSize(t *testing.T) {
	sub := &fakeSubmitter{}
	gen := New(threeBusinesses(), sub, WithLogger(logging.Discard()))

	_, err := gen.GenerateBatch(context.Background(), 0)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, sub.calls.Load())
}

func TestGenerateBatch_DirectoryFailure(t *testing.T) {
	boom := errors.New("graph down")
	gen := New(staticLister{err: boom}, &fakeSubmitter{}, WithLogger(logging.Discard()))

	_, err := gen.GenerateBatch(context.Background(), 2)
	require.ErrorIs(t, err, domain.ErrStore)
	require.ErrorIs(t, err, boom)
}

func TestGenerateBatch_FailsWithoutCancellingSiblings(t *testing.T) {
	sub := &fakeSubmitter{failAt: 2, err: domain.ErrConflict, delay: 5 * time.Millisecond}
	gen := New(threeBusinesses(), sub, WithLogger(logging.Discard()))

	_, err := gen.GenerateBatch(context.Background(), 6)
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.EqualValues(t, 6, sub.calls.Load())
	assert.Len(t, sub.written(), 5, "siblings of the failed write still complete")
}

func TestSeeder_Generate(t *testing.T) {
	seeder := NewSeeder(SeedConfig{NumBusinesses: 25, NumTransactions: 40, Seed: 9})

	dataset, err := seeder.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, dataset.Businesses, 25)
	require.Len(t, dataset.Transactions, 40)

	ids := make(map[string]bool)
	names := make(map[string]bool)
	for _, b := range dataset.Businesses {
		assert.NotEmpty(t, b.Name)
		assert.False(t, ids[b.ID], "duplicate id %s", b.ID)
		assert.False(t, names[b.Name], "duplicate name %s", b.Name)
		ids[b.ID] = true
		names[b.Name] = true
	}
	for _, tx := range dataset.Transactions {
		assert.True(t, ids[tx.From])
		assert.True(t, ids[tx.To])
		assert.NotEqual(t, tx.From, tx.To)
		assert.GreaterOrEqual(t, tx.Amount, 100.0)
	}

	again, err := NewSeeder(SeedConfig{NumBusinesses: 25, NumTransactions: 40, Seed: 9}).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dataset.Businesses, again.Businesses, "same seed yields the same directory")
}

func TestSeeder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSeeder(SeedConfig{NumBusinesses: 5}).Generate(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteDatasetAndReadTransactions(t *testing.T) {
	dir := t.TempDir()
	dataset, err := NewSeeder(SeedConfig{NumBusinesses: 4, NumTransactions: 6, Seed: 5}).Generate(context.Background())
	require.NoError(t, err)

	require.NoError(t, WriteDataset(dataset, dir))
	assert.FileExists(t, dir+"/businesses.json")

	txs, err := ReadTransactions(dir + "/transactions.json")
	require.NoError(t, err)
	require.Len(t, txs, 6)
	assert.Equal(t, dataset.Transactions[0].From, txs[0].From)
	assert.True(t, dataset.Transactions[0].Timestamp.Equal(txs[0].Timestamp))

	_, err = ReadTransactions(dir + "/missing.json")
	require.Error(t, err)
}
