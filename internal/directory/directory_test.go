package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/bizflow/internal/domain"
	"github.com/vanshika/bizflow/internal/logging"
)

type stubSource struct {
	mu         sync.Mutex
	businesses []domain.Business
	err        error
	listCalls  int
	lookups    [][]string
}

func (s *stubSource) ListBusinesses(context.Context) ([]domain.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Business(nil), s.businesses...), nil
}

func (s *stubSource) ResolveNames(_ context.Context, ids []string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups = append(s.lookups, append([]string(nil), ids...))
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]string)
	for _, id := range ids {
		for _, b := range s.businesses {
			if b.ID == id && b.Name != "" {
				out[id] = b.Name
			}
		}
	}
	return out, nil
}

func newSource() *stubSource {
	return &stubSource{businesses: []domain.Business{
		{ID: "BIZ-1", Name: "Acme Logistics"},
		{ID: "BIZ-2", Name: "Globex Foods"},
		{ID: "BIZ-3", Name: "Initech Supply"},
	}}
}

func newCachedDirectory(t *testing.T, src Source) (*Directory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(src, WithCache(rdb, time.Minute), WithLogger(logging.Discard())), mr
}

func TestResolveNames_WithoutCache(t *testing.T) {
	src := newSource()
	dir := New(src, WithLogger(logging.Discard()))

	names, err := dir.ResolveNames(context.Background(), []string{"BIZ-1", "BIZ-404", "BIZ-1", ""})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"BIZ-1": "Acme Logistics"}, names)
	require.Len(t, src.lookups, 1)
	assert.Equal(t, []string{"BIZ-1", "BIZ-404"}, src.lookups[0])
}

func TestResolveNames_CacheServesRepeatLookups(t *testing.T) {
	src := newSource()
	dir, mr := newCachedDirectory(t, src)
	ctx := context.Background()

	first, err := dir.ResolveNames(ctx, []string{"BIZ-1", "BIZ-2"})
	require.NoError(t, err)
	assert.Equal(t, "Globex Foods", first["BIZ-2"])
	assert.True(t, mr.Exists(nameKeyPrefix+"BIZ-1"))
	assert.Equal(t, time.Minute, mr.TTL(nameKeyPrefix+"BIZ-1"))

	second, err := dir.ResolveNames(ctx, []string{"BIZ-1", "BIZ-2"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, src.lookups, 1, "second lookup must be served from cache")

	_, err = dir.ResolveNames(ctx, []string{"BIZ-2", "BIZ-3"})
	require.NoError(t, err)
	require.Len(t, src.lookups, 2)
	assert.Equal(t, []string{"BIZ-3"}, src.lookups[1], "only cache misses reach the source")
}

func TestResolveNames_CacheOutageFallsBack(t *testing.T) {
	src := newSource()
	dir, mr := newCachedDirectory(t, src)
	mr.Close()

	names, err := dir.ResolveNames(context.Background(), []string{"BIZ-3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"BIZ-3": "Initech Supply"}, names)
}

func TestResolveNames_SourceError(t *testing.T) {
	src := newSource()
	src.err = errors.New("graph unavailable")
	dir := New(src, WithLogger(logging.Discard()))

	_, err := dir.ResolveNames(context.Background(), []string{"BIZ-1"})
	require.ErrorIs(t, err, src.err)
}

func TestListAll_CachesAndInvalidates(t *testing.T) {
	src := newSource()
	dir, _ := newCachedDirectory(t, src)
	ctx := context.Background()

	first, err := dir.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 3)

	second, err := dir.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.listCalls)

	src.businesses = append(src.businesses, domain.Business{ID: "BIZ-4", Name: "Umbrella"})
	require.NoError(t, dir.Invalidate(ctx))

	third, err := dir.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 4)
	assert.Equal(t, 2, src.listCalls)
}

func TestListAll_WithoutCache(t *testing.T) {
	src := newSource()
	dir := New(src)

	_, err := dir.ListAll(context.Background())
	require.NoError(t, err)
	_, err = dir.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.listCalls)
	require.NoError(t, dir.Invalidate(context.Background()))
}
