package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/bizflow/internal/domain"
)

// EventTransaction is the event type carried by every transaction update.
const EventTransaction = "transaction"

// ErrObserverLagging is reported when at least one observer dropped an event.
var ErrObserverLagging = errors.New("observer lagging: event dropped")

// Event is the payload delivered to observers.
type Event struct {
	ID          string                     `json:"id"`
	Type        string                     `json:"type"`
	Transaction domain.EnrichedTransaction `json:"transaction"`
	EmittedAt   time.Time                  `json:"emittedAt"`
}

// NewEvent wraps tx in a transaction event with a fresh id.
func NewEvent(tx domain.EnrichedTransaction) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        EventTransaction,
		Transaction: tx,
		EmittedAt:   time.Now().UTC(),
	}
}

// Broadcaster delivers an event to some set of observers.
type Broadcaster interface {
	Broadcast(ctx context.Context, ev Event) error
}

// Subscription is a single observer's feed. Events arrive on C until the
// subscription is closed.
type Subscription struct {
	ID string
	C  <-chan Event

	hub *Hub
}

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s.ID)
}

// Hub is the in-process observer registry.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]chan Event
	buffer  int
	dropped atomic.Uint64
}

// NewHub creates a hub whose subscriptions buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[string]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers a new observer.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Event, h.buffer)
	id := uuid.NewString()

	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()

	return &Subscription{ID: id, C: ch, hub: h}
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Broadcast hands ev to every observer without blocking. Observers whose
// buffer is full miss the event; the miss is reported as ErrObserverLagging.
func (h *Hub) Broadcast(_ context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	if dropped == 0 {
		return nil
	}

	h.dropped.Add(uint64(dropped))
	return fmt.Errorf("%w: %d of %d observers", ErrObserverLagging, dropped, len(h.subs))
}

// Count returns the number of live subscriptions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns the total number of undelivered events.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
