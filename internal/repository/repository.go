package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vanshika/bizflow/internal/domain"
	"github.com/vanshika/bizflow/internal/graph"
)

const (
	defaultListLimit = 200
	maxListLimit     = 1000
)

// ErrUnknownBusiness is returned by CreateEdge when either endpoint has no
// Business node, in which case nothing is written.
var ErrUnknownBusiness = errors.New("unknown business")

// Repository encapsulates graph persistence operations.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// CreateEdge persists tx as a TRANSACTION relationship between two existing
// Business nodes and returns the stored values.
func (r *Repository) CreateEdge(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	params := map[string]any{
		"from":      tx.From,
		"to":        tx.To,
		"amount":    tx.Amount,
		"timestamp": formatTime(tx.Timestamp),
	}

	res, err := r.client.ExecuteWrite(ctx, createEdgeCypher, params)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("create edge %s->%s: %w", tx.From, tx.To, err)
	}
	if res.Empty() {
		return domain.Transaction{}, fmt.Errorf("create edge %s->%s: %w", tx.From, tx.To, ErrUnknownBusiness)
	}

	return recordToTransaction(res.Records[0]), nil
}

// IsConflict classifies errors returned by CreateEdge.
func (r *Repository) IsConflict(err error) bool {
	return graph.IsConflict(err)
}

// FindEdges returns transactions optionally restricted to a sender and/or receiver.
func (r *Repository) FindEdges(ctx context.Context, from, to string) ([]domain.Transaction, error) {
	return r.FindEdgesFiltered(ctx, domain.TransactionFilter{From: from, To: to})
}

// FindEdgesFiltered returns transactions matching all supplied constraints,
// newest first.
func (r *Repository) FindEdgesFiltered(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	params := map[string]any{
		"from":      strings.TrimSpace(filter.From),
		"to":        strings.TrimSpace(filter.To),
		"startTs":   formatTimePtr(filter.StartTime),
		"endTs":     formatTimePtr(filter.EndTime),
		"minAmount": floatOrZero(filter.MinAmount),
		"maxAmount": floatOrZero(filter.MaxAmount),
		"limit":     limit,
	}

	res, err := r.client.ExecuteRead(ctx, findEdgesCypher, params)
	if err != nil {
		return nil, fmt.Errorf("find edges query: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(res.Records))
	for _, record := range res.Records {
		txs = append(txs, recordToTransaction(record))
	}
	return txs, nil
}

func recordToTransaction(record graph.Record) domain.Transaction {
	ts, _ := record.Time("timestamp")
	return domain.Transaction{
		From:      record.String("from"),
		To:        record.String("to"),
		Amount:    record.Float("amount"),
		Timestamp: ts,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return formatTime(*t)
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

const createEdgeCypher = `
MATCH (a:Business {businessId: $from})
MATCH (b:Business {businessId: $to})
CREATE (a)-[t:TRANSACTION {amount: $amount, timestamp: $timestamp}]->(b)
RETURN a.businessId AS from,
       b.businessId AS to,
       t.amount AS amount,
       t.timestamp AS timestamp
`

const findEdgesCypher = `
MATCH (a:Business)-[t:TRANSACTION]->(b:Business)
WHERE ($from = "" OR a.businessId = $from)
  AND ($to = "" OR b.businessId = $to)
  AND ($startTs = "" OR datetime(t.timestamp) >= datetime($startTs))
  AND ($endTs = "" OR datetime(t.timestamp) <= datetime($endTs))
  AND ($minAmount <= 0 OR t.amount >= $minAmount)
  AND ($maxAmount <= 0 OR t.amount <= $maxAmount)
RETURN a.businessId AS from,
       b.businessId AS to,
       t.amount AS amount,
       t.timestamp AS timestamp
ORDER BY datetime(t.timestamp) DESC
LIMIT $limit
`
