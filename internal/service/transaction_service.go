package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vanshika/bizflow/internal/domain"
	"github.com/vanshika/bizflow/internal/logging"
	"github.com/vanshika/bizflow/internal/repository"
)

// TransactionService validates and persists transactions, absorbing store
// conflicts, and hands confirmed writes to the notifier.
type TransactionService struct {
	store    TransactionStore
	names    NameResolver
	notifier Notifier
	logger   *slog.Logger
	policy   RetryPolicy
	jitter   *jitterSource
	nowFn    func() time.Time
	sleepFn  func(ctx context.Context, d time.Duration) error
}

// Option customises a TransactionService.
type Option func(*TransactionService)

// WithRetryPolicy overrides DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *TransactionService) {
		s.policy = p.normalized()
	}
}

// WithNotifier attaches the live update fan-out. Without one, Submit only persists.
func WithNotifier(n Notifier) Option {
	return func(s *TransactionService) {
		s.notifier = n
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *TransactionService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithJitterSeed makes retry jitter deterministic.
func WithJitterSeed(seed int64) Option {
	return func(s *TransactionService) {
		s.jitter = newJitterSource(seed)
	}
}

// NewTransactionService constructs the ingestion service.
func NewTransactionService(store TransactionStore, names NameResolver, opts ...Option) *TransactionService {
	s := &TransactionService{
		store:   store,
		names:   names,
		logger:  slog.Default(),
		policy:  DefaultRetryPolicy(),
		jitter:  newJitterSource(time.Now().UnixNano()),
		nowFn:   time.Now,
		sleepFn: sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.Component(s.logger, "ingestion")
	return s
}

// WithClock overrides the time provider (used primarily in tests).
func (s *TransactionService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Submit is the single ingestion entry point for API clients and the mock
// generator: persist, then enrich and emit. Enrichment and emission never fail
// the call once the write is durable.
func (s *TransactionService) Submit(ctx context.Context, input TransactionInput) (domain.Transaction, error) {
	tx, err := s.CreateTransaction(ctx, input)
	if err != nil {
		return domain.Transaction{}, err
	}

	if s.notifier == nil {
		return tx, nil
	}

	enriched, err := s.EnrichTransaction(ctx, tx)
	if err != nil {
		s.logger.Warn("enrichment failed, emitting raw identifiers", "error", err, "from", tx.From, "to", tx.To)
		enriched = rawProjection(tx)
	}
	s.notifier.EmitUpdate(enriched)
	return tx, nil
}

// CreateTransaction validates input and writes it to the store, retrying
// optimistic concurrency conflicts with jittered exponential backoff.
func (s *TransactionService) CreateTransaction(ctx context.Context, input TransactionInput) (domain.Transaction, error) {
	tx, err := normalizeInput(input, s.nowFn)
	if err != nil {
		return domain.Transaction{}, err
	}

	var lastErr error
	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		created, err := s.store.CreateEdge(ctx, tx)
		if err == nil {
			if attempt > 1 {
				s.logger.Info("transaction persisted after conflict retries", "attempts", attempt, "from", tx.From, "to", tx.To)
			}
			return created, nil
		}

		if errors.Is(err, repository.ErrUnknownBusiness) {
			return domain.Transaction{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if !s.store.IsConflict(err) {
			return domain.Transaction{}, fmt.Errorf("%w: %w", domain.ErrStore, err)
		}

		lastErr = err
		if attempt == s.policy.MaxAttempts {
			break
		}

		delay := s.policy.Backoff(attempt-1, s.jitter.next(s.policy.MaxJitter))
		s.logger.Debug("write conflict, retrying",
			"attempt", attempt,
			"max_attempts", s.policy.MaxAttempts,
			"delay", delay,
			"error", err,
		)
		if err := s.sleepFn(ctx, delay); err != nil {
			return domain.Transaction{}, fmt.Errorf("%w: retry interrupted: %w", domain.ErrStore, err)
		}
	}

	s.logger.Warn("write conflict retries exhausted", "attempts", s.policy.MaxAttempts, "from", tx.From, "to", tx.To, "error", lastErr)
	return domain.Transaction{}, fmt.Errorf("%w after %d attempts: %w", domain.ErrConflict, s.policy.MaxAttempts, lastErr)
}

// EnrichTransaction replaces business ids with display names using a single
// directory lookup. Unresolvable ids are kept as-is. The store is never touched.
func (s *TransactionService) EnrichTransaction(ctx context.Context, tx domain.Transaction) (domain.EnrichedTransaction, error) {
	enriched := rawProjection(tx)
	if s.names == nil {
		return enriched, nil
	}

	ids := []string{tx.From}
	if tx.To != tx.From {
		ids = append(ids, tx.To)
	}
	names, err := s.names.ResolveNames(ctx, ids)
	if err != nil {
		return domain.EnrichedTransaction{}, fmt.Errorf("resolve names: %w", err)
	}

	if name, ok := names[tx.From]; ok && name != "" {
		enriched.From = name
	}
	if name, ok := names[tx.To]; ok && name != "" {
		enriched.To = name
	}
	return enriched, nil
}

// ListTransactions returns stored transactions matching filter.
func (s *TransactionService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	txs, err := s.store.FindEdgesFiltered(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStore, err)
	}
	return txs, nil
}

func rawProjection(tx domain.Transaction) domain.EnrichedTransaction {
	return domain.EnrichedTransaction{
		From:      tx.From,
		To:        tx.To,
		Amount:    tx.Amount,
		Timestamp: tx.Timestamp,
	}
}
