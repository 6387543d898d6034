package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vanshika/bizflow/internal/domain"
	"github.com/vanshika/bizflow/internal/logging"
)

// State is the lifecycle phase of the recurring generator job.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// BatchRunner produces one batch of transactions.
type BatchRunner interface {
	GenerateBatch(ctx context.Context, n int) ([]domain.Transaction, error)
}

// ControllerConfig tunes the recurring job.
type ControllerConfig struct {
	DefaultInterval  time.Duration
	MaxInFlightTicks int
}

// Status is a point-in-time view of the controller.
type Status struct {
	State         State      `json:"state"`
	BatchSize     int        `json:"batchSize,omitempty"`
	IntervalMs    int64      `json:"intervalMs,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	Batches       uint64     `json:"batches"`
	FailedBatches uint64     `json:"failedBatches"`
	SkippedTicks  uint64     `json:"skippedTicks"`
	Generated     uint64     `json:"generated"`
	LastError     string     `json:"lastError,omitempty"`
}

// Controller owns the single recurring generator job. At most one ticker
// loop exists at any time.
type Controller struct {
	runner          BatchRunner
	logger          *slog.Logger
	defaultInterval time.Duration

	baseCtx    context.Context
	cancelBase context.CancelFunc
	sem        chan struct{}
	inflight   sync.WaitGroup

	mu        sync.Mutex
	state     State
	aborted   bool
	closed    bool
	batchSize int
	interval  time.Duration
	startedAt time.Time
	stop      chan struct{}
	loopDone  chan struct{}

	batches       uint64
	failedBatches uint64
	skippedTicks  uint64
	generated     uint64
	lastError     string
}

// NewController wires a controller around runner.
func NewController(runner BatchRunner, cfg ControllerConfig, logger *slog.Logger) *Controller {
	if cfg.DefaultInterval <= 0 {
		cfg.DefaultInterval = 3 * time.Second
	}
	if cfg.MaxInFlightTicks <= 0 {
		cfg.MaxInFlightTicks = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		runner:          runner,
		logger:          logging.Component(logger, "generator_controller"),
		defaultInterval: cfg.DefaultInterval,
		baseCtx:         ctx,
		cancelBase:      cancel,
		sem:             make(chan struct{}, cfg.MaxInFlightTicks),
		state:           StateIdle,
	}
}

// Start runs one batch immediately and, if it succeeds, schedules a batch of
// the same size every interval. A non-positive interval uses the default.
func (c *Controller) Start(ctx context.Context, batchSize int, interval time.Duration) ([]domain.Transaction, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrControllerClosed
	}
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: state is %s", domain.ErrAlreadyRunning, state)
	}
	if batchSize < 1 || batchSize > MaxBatchSize {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: batch size must be between 1 and %d", domain.ErrValidation, MaxBatchSize)
	}
	if interval <= 0 {
		interval = c.defaultInterval
	}
	c.state = StateStarting
	c.aborted = false
	c.mu.Unlock()

	txs, err := c.runner.GenerateBatch(ctx, batchSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(len(txs), err)

	if err != nil {
		c.state = StateIdle
		c.aborted = false
		c.logger.Warn("initial batch failed, generator not started", "batch_size", batchSize, "error", err)
		return nil, err
	}
	if c.aborted {
		c.state = StateIdle
		c.aborted = false
		c.logger.Info("generator start aborted by stop request")
		return txs, domain.ErrStartAborted
	}

	c.stop = make(chan struct{})
	c.loopDone = make(chan struct{})
	c.batchSize = batchSize
	c.interval = interval
	c.startedAt = time.Now().UTC()
	c.state = StateRunning
	go c.loop(c.stop, c.loopDone, batchSize, interval)

	c.logger.Info("generator started", "batch_size", batchSize, "interval", interval)
	return txs, nil
}

// Stop cancels the recurring job. Batches already in flight finish on their
// own. Stopping during the initial batch aborts the start.
func (c *Controller) Stop() error {
	c.mu.Lock()
	switch c.state {
	case StateStarting:
		c.aborted = true
		c.mu.Unlock()
		return nil
	case StateRunning:
	default:
		c.mu.Unlock()
		return domain.ErrNotRunning
	}

	close(c.stop)
	done := c.loopDone
	c.state = StateStopping
	c.mu.Unlock()

	<-done

	c.mu.Lock()
	c.state = StateIdle
	c.stop = nil
	c.loopDone = nil
	c.batchSize = 0
	c.interval = 0
	c.startedAt = time.Time{}
	c.mu.Unlock()

	c.logger.Info("generator stopped")
	return nil
}

// Status reports the current state and lifetime counters.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		State:         c.state,
		BatchSize:     c.batchSize,
		IntervalMs:    c.interval.Milliseconds(),
		Batches:       c.batches,
		FailedBatches: c.failedBatches,
		SkippedTicks:  c.skippedTicks,
		Generated:     c.generated,
		LastError:     c.lastError,
	}
	if !c.startedAt.IsZero() {
		started := c.startedAt
		st.StartedAt = &started
	}
	return st
}

// Shutdown stops the job if it is running and waits for in-flight batches.
// When ctx expires first, outstanding batches are cancelled. Shutdown is
// terminal: later calls to Start return ErrControllerClosed.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if err := c.Stop(); err != nil && !errors.Is(err, domain.ErrNotRunning) {
		return err
	}

	waited := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		c.cancelBase()
		return nil
	case <-ctx.Done():
		c.cancelBase()
		return ctx.Err()
	}
}

func (c *Controller) loop(stop <-chan struct{}, done chan<- struct{}, batchSize int, interval time.Duration) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.tick(batchSize)
		}
	}
}

func (c *Controller) tick(batchSize int) {
	select {
	case c.sem <- struct{}{}:
	default:
		c.mu.Lock()
		c.skippedTicks++
		c.mu.Unlock()
		c.logger.Warn("previous batch still running, tick skipped", "batch_size", batchSize)
		return
	}

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer func() { <-c.sem }()

		txs, err := c.runner.GenerateBatch(c.baseCtx, batchSize)

		c.mu.Lock()
		c.record(len(txs), err)
		c.mu.Unlock()

		if err != nil {
			c.logger.Warn("scheduled batch failed", "batch_size", batchSize, "error", err)
		}
	}()
}

// record updates counters; callers hold c.mu.
func (c *Controller) record(n int, err error) {
	c.batches++
	if err != nil {
		c.failedBatches++
		c.lastError = err.Error()
		return
	}
	c.generated += uint64(n)
}
