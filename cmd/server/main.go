package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpadapter "ai-resume-generator/internal/adapter/http"
	"ai-resume-generator/internal/app"
	"ai-resume-generator/internal/config"
	"ai-resume-generator/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg, log, app.Options{})
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	res := components.Discovery.Resolve()
	log.Info("browser discovery", "source", res.Source, "path", res.Path)

	srv := fiber.New(fiber.Config{
		AppName:               "ai-resume-generator",
		DisableStartupMessage: cfg.IsProduction(),
		BodyLimit:             2 << 20,
	})
	srv.Use(recover.New())

	h := httpadapter.NewHandler(components.Pipeline, components.Templates, !cfg.IsProduction(), log)
	h.Register(srv)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.ShutdownWithContext(sctx); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	log.Info("listening", "port", cfg.Port, "env", cfg.Env, "audit", components.AuditEnabled())
	if err := srv.Listen(":" + cfg.Port); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}
