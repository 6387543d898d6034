package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vanshika/bizflow/internal/domain"
	"github.com/vanshika/bizflow/internal/logging"
)

// Emitter fans confirmed transactions out to its broadcasters. Each emission
// runs in its own goroutine with its own deadline, so the write path never
// waits on observers.
type Emitter struct {
	targets []Broadcaster
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewEmitter builds an emitter. A non-positive timeout falls back to five seconds.
func NewEmitter(timeout time.Duration, logger *slog.Logger, targets ...Broadcaster) *Emitter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Emitter{
		targets: targets,
		timeout: timeout,
		logger:  logging.Component(logger, "notify"),
	}
}

// EmitUpdate schedules delivery of tx and returns immediately.
func (e *Emitter) EmitUpdate(tx domain.EnrichedTransaction) {
	ev := NewEvent(tx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		for _, target := range e.targets {
			if err := target.Broadcast(ctx, ev); err != nil {
				e.logger.Warn("broadcast failed", "event_id", ev.ID, "error", err)
			}
		}
	}()
}

// Wait blocks until every scheduled emission has finished.
func (e *Emitter) Wait() {
	e.wg.Wait()
}
