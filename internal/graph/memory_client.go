package graph

import (
	"context"
	"maps"
	"sync"
)

type accessMode int

const (
	modeRead accessMode = iota
	modeWrite
)

// scripted is one canned reply. A nil err with a zero Result is a successful
// statement that matched nothing.
type scripted struct {
	res Result
	err error
}

// ExecutedQuery is a statement as the MemoryClient saw it.
type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

// MemoryClient is a scripted Client for tests. Replies queue per access mode
// and are consumed in order; once a queue is empty every call succeeds with
// no records. All calls are recorded, including failed ones.
type MemoryClient struct {
	mu           sync.Mutex
	script       map[accessMode][]scripted
	calls        map[accessMode][]ExecutedQuery
	err          error
	connectivity error
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		script: make(map[accessMode][]scripted),
		calls:  make(map[accessMode][]ExecutedQuery),
	}
}

// WithError fails every statement with err. Such calls are not recorded.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
	return m
}

// WithConnectivityError makes VerifyConnectivity return err.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	m.connectivity = err
	m.mu.Unlock()
	return m
}

func (m *MemoryClient) PushReadResult(res Result) { m.push(modeRead, scripted{res: res}) }

func (m *MemoryClient) PushWriteResult(res Result) { m.push(modeWrite, scripted{res: res}) }

// PushWriteError queues a failing write, e.g. ErrConflict to exercise retries.
func (m *MemoryClient) PushWriteError(err error) { m.push(modeWrite, scripted{err: err}) }

func (m *MemoryClient) push(mode accessMode, s scripted) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script[mode] = append(m.script[mode], s)
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.exec(modeWrite, cypher, params)
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.exec(modeRead, cypher, params)
}

func (m *MemoryClient) exec(mode accessMode, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Result{}, m.err
	}
	m.calls[mode] = append(m.calls[mode], ExecutedQuery{Query: cypher, Params: maps.Clone(params)})

	queue := m.script[mode]
	if len(queue) == 0 {
		return Result{}, nil
	}
	next := queue[0]
	m.script[mode] = queue[1:]
	return next.res, next.err
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error { return nil }

// WriteCalls returns the recorded writes in call order.
func (m *MemoryClient) WriteCalls() []ExecutedQuery { return m.snapshot(modeWrite) }

// ReadCalls returns the recorded reads in call order.
func (m *MemoryClient) ReadCalls() []ExecutedQuery { return m.snapshot(modeRead) }

func (m *MemoryClient) snapshot(mode accessMode) []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.calls[mode]...)
}
