package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/vanshika/bizflow/internal/generator"
	"github.com/vanshika/bizflow/internal/notify"
	"github.com/vanshika/bizflow/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, live event stream and mock load controller",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := appCfg

	hub := notify.NewHub(cfg.Notify.SubscriberBuffer)
	defer hub.Close()

	rt, err := buildRuntime(ctx, cfg, logger, hub)
	if err != nil {
		return err
	}
	defer rt.Close(logger)

	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	if rt.redis != nil {
		go func() {
			defer close(relayDone)
			if err := notify.RunRelay(relayCtx, rt.redis, cfg.Redis.EventChannel, hub, logger); err != nil {
				logger.Error("event relay stopped", "error", err)
			}
		}()
	} else {
		close(relayDone)
	}

	gen := generator.New(rt.directory, rt.service,
		generator.WithSeed(cfg.Generator.Seed),
		generator.WithLogger(logger),
	)
	controller := generator.NewController(gen, generator.ControllerConfig{
		DefaultInterval:  cfg.Generator.DefaultInterval,
		MaxInFlightTicks: cfg.Generator.MaxInFlightTicks,
	}, logger)

	apiHandlers := server.NewAPIHandlers(logger, server.APIDependencies{
		Ingestion:  rt.service,
		Directory:  rt.directory,
		Batches:    gen,
		Controller: controller,
		Events:     hub,
	})

	health := server.HealthChecks{server.GraphHealthService{Client: rt.graph}}
	if rt.redis != nil {
		health = append(health, server.RedisHealthService{Client: rt.redis})
	}

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           health,
		API:              apiHandlers,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)
	serveErr := srv.Run(ctx)
	if serveErr != nil {
		logger.Error("http server stopped", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := controller.Shutdown(shutdownCtx); err != nil {
		logger.Warn("generator batches still running at shutdown", "error", err)
	}

	stopRelay()
	<-relayDone
	return serveErr
}
