package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vanshika/bizflow/internal/domain"
	"github.com/vanshika/bizflow/internal/logging"
	"github.com/vanshika/bizflow/internal/service"
)

const (
	minAmount = 100
	maxAmount = 10000

	// MaxBatchSize bounds a single generated batch.
	MaxBatchSize = 100
)

// BusinessLister supplies the businesses transactions are drawn between.
type BusinessLister interface {
	ListAll(ctx context.Context) ([]domain.Business, error)
}

// Generator produces batches of random transactions between known businesses
// and pushes them through the regular ingestion entry point.
type Generator struct {
	directory BusinessLister
	submitter service.Submitter
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.Mutex
	rand *rand.Rand
}

// Option customises a Generator.
type Option func(*Generator)

// WithSeed makes the drawn transactions reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		if seed != 0 {
			g.rand = rand.New(rand.NewSource(seed))
		}
	}
}

// WithLogger sets the generator logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// New returns a Generator drawing from directory and writing through submitter.
func New(directory BusinessLister, submitter service.Submitter, opts ...Option) *Generator {
	g := &Generator{
		directory: directory,
		submitter: submitter,
		logger:    slog.Default(),
		now:       time.Now,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.Component(g.logger, "generator")
	return g
}

// GenerateBatch draws n random transactions and submits them concurrently.
// The batch fails with the first sub-request error; siblings already in
// flight are left to finish. Nothing is written when fewer than two
// businesses exist.
func (g *Generator) GenerateBatch(ctx context.Context, n int) ([]domain.Transaction, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: batch size must be at least 1", domain.ErrValidation)
	}

	businesses, err := g.directory.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	businesses = distinct(businesses)
	if len(businesses) < 2 {
		return nil, fmt.Errorf("%w: found %d", domain.ErrInsufficientData, len(businesses))
	}

	inputs := g.draw(businesses, n)
	results := make([]domain.Transaction, n)

	var eg errgroup.Group
	for i, input := range inputs {
		i, input := i, input
		eg.Go(func() error {
			tx, err := g.submitter.Submit(ctx, input)
			if err != nil {
				return fmt.Errorf("generated transaction %s->%s: %w", input.From, input.To, err)
			}
			results[i] = tx
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		g.logger.Warn("batch failed", "size", n, "error", err)
		return nil, err
	}

	g.logger.Debug("batch generated", "size", n)
	return results, nil
}

func (g *Generator) draw(businesses []domain.Business, n int) []service.TransactionInput {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	inputs := make([]service.TransactionInput, n)
	for i := range inputs {
		from := businesses[g.rand.Intn(len(businesses))]
		to := businesses[g.rand.Intn(len(businesses))]
		for to.ID == from.ID {
			to = businesses[g.rand.Intn(len(businesses))]
		}
		inputs[i] = service.TransactionInput{
			From:      from.ID,
			To:        to.ID,
			Amount:    float64(minAmount + g.rand.Intn(maxAmount-minAmount+1)),
			Timestamp: now,
		}
	}
	return inputs
}

func distinct(businesses []domain.Business) []domain.Business {
	seen := make(map[string]struct{}, len(businesses))
	out := make([]domain.Business, 0, len(businesses))
	for _, b := range businesses {
		if _, ok := seen[b.ID]; ok || b.ID == "" {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}
	return out
}
