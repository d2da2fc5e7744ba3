package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"rasid/internal/amqp"
	"rasid/internal/cli"
	"rasid/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting rasid-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}

	store := cli.InitStore(logger, cfg)
	defer func() {
		if store.Cleanup != nil {
			_ = store.Cleanup()
		}
	}()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks := cli.BuildSinks(ctx, logger, cfg, store.Store)
	mirrorWorker := worker.NewMirrorWorker(store.Store, sinks...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mirrorWorker.Run(gctx, amqpClient)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
