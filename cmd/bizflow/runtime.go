package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/vanshika/bizflow/internal/config"
	"github.com/vanshika/bizflow/internal/directory"
	"github.com/vanshika/bizflow/internal/graph"
	"github.com/vanshika/bizflow/internal/notify"
	"github.com/vanshika/bizflow/internal/repository"
	"github.com/vanshika/bizflow/internal/service"
)

// runtime holds the long-lived clients and services shared by every command.
type runtime struct {
	graph     graph.Client
	redis     *redis.Client
	repo      *repository.Repository
	directory *directory.Directory
	emitter   *notify.Emitter
	service   *service.TransactionService
}

// buildRuntime connects to the graph store (and Redis when configured) and
// wires the ingestion service. With Redis, confirmed writes are published to
// the event channel and every API instance relays them to its observers.
// Without Redis they go straight to local, which may be nil.
func buildRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger, local notify.Broadcaster) (*runtime, error) {
	graphClient, err := buildGraphClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create graph client: %w", err)
	}

	rt := &runtime{graph: graphClient}
	rt.redis, err = buildRedisClient(ctx, cfg)
	if err != nil {
		_ = graphClient.Close(context.Background())
		return nil, err
	}

	rt.repo = repository.New(graphClient)

	var target notify.Broadcaster
	dirOpts := []directory.Option{directory.WithLogger(logger)}
	if rt.redis != nil {
		dirOpts = append(dirOpts, directory.WithCache(rt.redis, cfg.Redis.NameCacheTTL))
		target = notify.NewRedisPublisher(rt.redis, cfg.Redis.EventChannel)
	} else if local != nil {
		target = local
	}
	rt.directory = directory.New(rt.repo, dirOpts...)

	svcOpts := []service.Option{
		service.WithLogger(logger),
		service.WithRetryPolicy(service.RetryPolicy{
			MaxAttempts: cfg.Ingest.MaxAttempts,
			BaseDelay:   cfg.Ingest.BaseDelay,
			MaxDelay:    cfg.Ingest.MaxDelay,
			MaxJitter:   cfg.Ingest.MaxJitter,
		}),
	}
	if target != nil {
		rt.emitter = notify.NewEmitter(cfg.Notify.EmitTimeout, logger, target)
		svcOpts = append(svcOpts, service.WithNotifier(rt.emitter))
	}
	rt.service = service.NewTransactionService(rt.repo, rt.directory, svcOpts...)

	return rt, nil
}

// Close drains pending notifications and releases every client.
func (rt *runtime) Close(logger *slog.Logger) {
	if rt.emitter != nil {
		rt.emitter.Wait()
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			logger.Warn("closing redis client failed", "error", err)
		}
	}
	if rt.graph != nil {
		if err := rt.graph.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}
}

func buildGraphClient(ctx context.Context, cfg config.Config) (graph.Client, error) {
	if cfg.Graph.URI == "" {
		return nil, graph.ErrMissingURI
	}

	opts := graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
	}
	return graph.NewNeo4jClient(ctx, opts)
}

func buildRedisClient(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.Redis.Addr, err)
	}
	return rdb, nil
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
