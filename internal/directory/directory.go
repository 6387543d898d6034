package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vanshika/bizflow/internal/domain"
	"github.com/vanshika/bizflow/internal/logging"
)

const (
	nameKeyPrefix = "bizflow:business:name:"
	listKey       = "bizflow:business:list"
)

// Source is the authoritative business store, normally the graph repository.
type Source interface {
	ListBusinesses(ctx context.Context) ([]domain.Business, error)
	ResolveNames(ctx context.Context, ids []string) (map[string]string, error)
}

// Directory answers business lookups for ingestion and the load generator.
// When a Redis client is configured, names and the business listing are
// cached with a TTL; cache failures degrade to the source.
type Directory struct {
	source Source
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Option customises a Directory.
type Option func(*Directory)

// WithCache enables Redis caching. A nil client leaves caching disabled.
func WithCache(rdb *redis.Client, ttl time.Duration) Option {
	return func(d *Directory) {
		d.cache = rdb
		d.ttl = ttl
	}
}

// WithLogger sets the directory logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.logger = l
		}
	}
}

// New wraps source in a Directory.
func New(source Source, opts ...Option) *Directory {
	d := &Directory{
		source: source,
		logger: slog.Default(),
		ttl:    5 * time.Minute,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.Component(d.logger, "directory")
	return d
}

// ListAll returns every known business.
func (d *Directory) ListAll(ctx context.Context) ([]domain.Business, error) {
	if d.cache != nil {
		var cached []domain.Business
		found, err := getCache(ctx, d.cache, listKey, &cached)
		if err != nil {
			d.logger.Warn("business list cache read failed", "error", err)
		} else if found {
			return cached, nil
		}
	}

	businesses, err := d.source.ListBusinesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}

	if d.cache != nil && len(businesses) > 0 {
		if err := setCache(ctx, d.cache, listKey, businesses, d.ttl); err != nil {
			d.logger.Warn("business list cache write failed", "error", err)
		}
	}
	return businesses, nil
}

// ResolveNames maps ids to display names. Ids the source does not know are
// absent from the result. At most one source query is issued per call.
func (d *Directory) ResolveNames(ctx context.Context, ids []string) (map[string]string, error) {
	ids = dedupe(ids)
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	missing := ids
	if d.cache != nil {
		var err error
		missing, err = d.cachedNames(ctx, ids, names)
		if err != nil {
			d.logger.Warn("name cache read failed", "error", err)
			missing = ids
		}
	}
	if len(missing) == 0 {
		return names, nil
	}

	resolved, err := d.source.ResolveNames(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("resolve names: %w", err)
	}
	for id, name := range resolved {
		names[id] = name
	}

	if d.cache != nil && len(resolved) > 0 {
		pipe := d.cache.Pipeline()
		for id, name := range resolved {
			pipe.Set(ctx, nameKeyPrefix+id, name, d.ttl)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			d.logger.Warn("name cache write failed", "error", err)
		}
	}
	return names, nil
}

// Invalidate drops the cached business listing, e.g. after seeding.
func (d *Directory) Invalidate(ctx context.Context) error {
	if d.cache == nil {
		return nil
	}
	return d.cache.Del(ctx, listKey).Err()
}

func (d *Directory) cachedNames(ctx context.Context, ids []string, dst map[string]string) ([]string, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = nameKeyPrefix + id
	}

	values, err := d.cache.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var missing []string
	for i, v := range values {
		name, ok := v.(string)
		if !ok || name == "" {
			missing = append(missing, ids[i])
			continue
		}
		dst[ids[i]] = name
	}
	return missing, nil
}

func getCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(val), dest)
}

func setCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
