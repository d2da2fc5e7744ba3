package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"rasid/internal/cli"
	apphttp "rasid/internal/http"
	"rasid/internal/ledger"
	"rasid/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitStore(logger, cfg)
	mirrorPort, amqpClient := cli.BuildMirror(context.Background(), logger, cfg, store.Store)
	svc := ledger.New(store.Store, mirrorPort)

	srv := apphttp.NewServer(":"+cfg.Port, svc, cfg.CacheTTL)
	srv.Handler = log.Middleware(logger.WithComponent(log.ComponentHTTP))(srv.Handler)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting rasid server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"mirror_mode", cfg.MirrorMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			_ = amqpClient.Close()
		}
		if store.Cleanup != nil {
			if err := store.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
