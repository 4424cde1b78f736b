package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/isstrack/internal/adapters/http"
	natsadapter "github.com/samirrijal/isstrack/internal/adapters/nats"
	"github.com/samirrijal/isstrack/internal/bootstrap"
	"github.com/samirrijal/isstrack/internal/pkg/config"
	"github.com/samirrijal/isstrack/internal/pkg/logging"
	"github.com/samirrijal/isstrack/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("isstrack-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			logger.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	rt, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer rt.Close()
	rt.WatchDBPool(ctx, 15*time.Second)

	if cfg.Feed.WarmOnStart {
		warmCtx, warmCancel := context.WithTimeout(ctx, cfg.Feed.Timeout+5*time.Second)
		if _, err := rt.Service.Snapshot(warmCtx); err != nil {
			// Not fatal: the first request retries the fetch.
			logger.Warn("initial ephemeris load failed", "error", err)
		}
		warmCancel()
	}
	rt.Service.StartRefresher(ctx, cfg.Feed.RefreshInterval)

	// Raw NATS connection for the WebSocket relay
	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		natsConn, err = natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			logger.Warn("nats ws conn unavailable", "error", err)
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	deps := &http.Dependencies{
		Ephemeris: rt.Service,
		NATS:      natsConn,
		Store:     rt.Store,
		Version:   version,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024,
		AppName:      "isstrack API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "backend", cfg.Cache.Backend, "feed", cfg.Feed.URL)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
