package service

import (
	"context"

	"github.com/vanshika/bizflow/internal/domain"
)

// TransactionStore is the graph store contract required by ingestion. The
// store also classifies its own errors so the retry loop stays engine-neutral.
//
//go:generate mockgen -destination=mocks/mock_store.go -source=interface.go TransactionStore
type TransactionStore interface {
	CreateEdge(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)
	FindEdges(ctx context.Context, from, to string) ([]domain.Transaction, error)
	FindEdgesFiltered(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	IsConflict(err error) bool
}

// NameResolver maps business ids to display names in one batched call.
type NameResolver interface {
	ResolveNames(ctx context.Context, ids []string) (map[string]string, error)
}

// Notifier receives enriched transactions once their write is durable.
// Implementations must not block the caller.
type Notifier interface {
	EmitUpdate(tx domain.EnrichedTransaction)
}
