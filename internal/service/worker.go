package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/vanshika/bizflow/internal/domain"
)

const maxReportedErrors = 5

// TaskError lists the items a bulk ingestion could not store.
type TaskError struct {
	Errors []error
}

// Error summarises the failures, spelling out the first few.
func (e *TaskError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d transactions failed", len(e.Errors))
	for i, err := range e.Errors {
		if i == maxReportedErrors {
			fmt.Fprintf(&b, "; and %d more", len(e.Errors)-i)
			break
		}
		b.WriteString("; ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Submitter is the ingestion entry point shared by every producer of transactions.
type Submitter interface {
	Submit(ctx context.Context, input TransactionInput) (domain.Transaction, error)
}

// BulkIngestor replays large transaction datasets through the regular
// ingestion path with bounded concurrency.
type BulkIngestor struct {
	submitter  Submitter
	workers    int
	onProgress func(done int)
}

// NewBulkIngestor returns an ingestor running at most workers submissions at
// once. Non-positive values use 4.
func NewBulkIngestor(submitter Submitter, workers int) *BulkIngestor {
	if workers <= 0 {
		workers = 4
	}
	return &BulkIngestor{
		submitter: submitter,
		workers:   workers,
	}
}

// OnProgress registers a callback invoked after each processed item with the
// running total. It is called from worker goroutines.
func (bi *BulkIngestor) OnProgress(fn func(done int)) {
	bi.onProgress = fn
}

// IngestTransactions submits every input. A failed item is recorded in the
// returned TaskError and does not stop the others; cancelling ctx stops
// scheduling and returns the context error.
func (bi *BulkIngestor) IngestTransactions(ctx context.Context, txs []TransactionInput) error {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		taskErr TaskError
		done    atomic.Int64
	)
	g.SetLimit(bi.workers)

	for i := range txs {
		if ctx.Err() != nil {
			break
		}
		i, input := i, txs[i]
		g.Go(func() error {
			_, err := bi.submitter.Submit(ctx, input)
			if err != nil {
				mu.Lock()
				taskErr.append(fmt.Errorf("transaction %d (%s->%s): %w", i, input.From, input.To, err))
				mu.Unlock()
			}
			if n := done.Add(1); bi.onProgress != nil {
				bi.onProgress(int(n))
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return taskErr.asError()
}
