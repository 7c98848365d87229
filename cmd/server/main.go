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

	"github.com/qiyuanliu/mapnav/internal/adapters/amap"
	"github.com/qiyuanliu/mapnav/internal/adapters/baidu"
	"github.com/qiyuanliu/mapnav/internal/adapters/browser"
	"github.com/qiyuanliu/mapnav/internal/adapters/http"
	"github.com/qiyuanliu/mapnav/internal/adapters/llm"
	natsadapter "github.com/qiyuanliu/mapnav/internal/adapters/nats"
	"github.com/qiyuanliu/mapnav/internal/adapters/valkey"
	"github.com/qiyuanliu/mapnav/internal/adapters/xfyun"
	"github.com/qiyuanliu/mapnav/internal/core/domain"
	"github.com/qiyuanliu/mapnav/internal/core/ports"
	"github.com/qiyuanliu/mapnav/internal/core/usecases"
	"github.com/qiyuanliu/mapnav/internal/pkg/config"
	"github.com/qiyuanliu/mapnav/internal/pkg/logging"
	"github.com/qiyuanliu/mapnav/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("mapnav")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache (optional)
	var cache *valkey.Cache
	if c, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		cache = c
		defer cache.Close()
	}

	// NATS (optional)
	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		events = pub
		defer pub.Close()
	}
	rawNATS, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Provider capabilities
	providers := map[domain.Provider]ports.MapProvider{
		domain.ProviderAMap:  amap.New(cfg.AMap.APIKey, cfg.AMap.BaseURL, nil),
		domain.ProviderBaidu: baidu.New(cfg.Baidu.APIKey, cfg.Baidu.BaseURL, nil),
	}

	extractor := llm.NewExtractor(cfg.Anthropic.APIKey, cfg.Anthropic.BaseURL, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
	opener := browser.NewLauncher()
	recognizer := xfyun.NewRecognizer(cfg.Xfyun.AppID, cfg.Xfyun.APIKey, cfg.Xfyun.APISecret, cfg.Xfyun.Host)

	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}
	navSvc := usecases.NewNavigationService(providers, extractor, opener, events, cacheSvc, cfg.Valkey.PlaceTTL)

	deps := &http.Dependencies{
		Navigation: navSvc,
		Speech:     recognizer,
		NATS:       rawNATS,
		Cache:      cache,
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    10 * 1024 * 1024, // audio uploads
		AppName:      "MapNav",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:3000, http://localhost:5173",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
