// Package app assembles the generation pipeline from configuration. It is
// shared by the HTTP server and the operator CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"

	"ai-resume-generator/internal/adapter/repository"
	"ai-resume-generator/internal/config"
	"ai-resume-generator/internal/infrastructure/migration"
	"ai-resume-generator/internal/render"
	"ai-resume-generator/internal/usecase"
	"ai-resume-generator/pkg/ai"
	"ai-resume-generator/pkg/infrastructure"
)

// Components is the assembled service.
type Components struct {
	Pipeline  *usecase.Pipeline
	Templates *render.Registry
	Discovery *infrastructure.Discovery
	Enhancer  *ai.Enhancer
	pool      *pgxpool.Pool
}

// Options toggles the parts a caller does not need.
type Options struct {
	// SkipAudit leaves the audit database untouched even when configured.
	SkipAudit bool
}

// Build wires every collaborator. A configured but unreachable audit
// database is logged and skipped.
func Build(ctx context.Context, cfg config.Config, log *slog.Logger, opts Options) (*Components, error) {
	gen, err := NewTextGenerator(ctx, cfg.AI, log)
	if err != nil {
		return nil, err
	}
	enhancer := ai.NewEnhancer(gen, log)

	discovery := NewDiscovery(cfg.Browser)
	templates := render.NewRegistry(cfg.TemplatesDir, render.NewHelpers())

	var pool *pgxpool.Pool
	if !opts.SkipAudit && cfg.GenerationsDatabaseURL != "" {
		pool, err = infrastructure.NewGenerationsPool(ctx, cfg.GenerationsDatabaseURL)
		if err != nil {
			log.Warn("app: audit database unavailable, continuing without it", "error", err)
			pool = nil
		} else if err := migration.RunMigrations(ctx, pool, log); err != nil {
			log.Warn("app: audit migrations failed, continuing without auditing", "error", err)
			pool.Close()
			pool = nil
		}
	}

	pipeline := usecase.NewPipeline(usecase.Deps{
		Enhancer: enhancer,
		Renderer: templates,
		Launcher: infrastructure.NewChromeLauncher(infrastructure.LauncherOptions{
			Discovery:     discovery,
			LaunchTimeout: cfg.Browser.LaunchTimeout,
			Logger:        log,
		}),
		Compositor: infrastructure.NewPDFCompositor(infrastructure.CompositorOptions{
			IdleTimeout:  cfg.Browser.IdleTimeout,
			Paper:        infrastructure.A4,
			MarginInches: infrastructure.DefaultMarginInches,
			Logger:       log,
		}),
		Repo:   repository.NewGenerationsRepo(pool),
		Logger: log,
	})

	return &Components{
		Pipeline:  pipeline,
		Templates: templates,
		Discovery: discovery,
		Enhancer:  enhancer,
		pool:      pool,
	}, nil
}

// Close releases the audit pool.
func (c *Components) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

// AuditEnabled reports whether generation records are persisted.
func (c *Components) AuditEnabled() bool { return c.pool != nil }

// NewTextGenerator returns the retrying Gemini client, or nil when
// enhancement is disabled or no API key is configured.
func NewTextGenerator(ctx context.Context, cfg config.AIConfig, log *slog.Logger) (ai.TextGenerator, error) {
	if !cfg.Enabled {
		log.Info("app: AI enhancement disabled by configuration")
		return nil, nil
	}
	if cfg.APIKey == "" {
		log.Warn("app: GEMINI_API_KEY not set, AI enhancement disabled")
		return nil, nil
	}
	transport, err := ai.NewGeminiTransport(ctx, ai.GeminiConfig{
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Endpoint: cfg.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	policy := ai.DefaultRetryPolicy()
	policy.Attempts = cfg.Attempts
	policy.AttemptTimeout = cfg.AttemptTimeout
	policy.BaseDelay = cfg.BaseDelay
	policy.MaxDelay = cfg.MaxDelay
	return ai.NewClient(transport, policy, log), nil
}

// NewDiscovery maps browser configuration onto the discovery chain.
func NewDiscovery(cfg config.BrowserConfig) *infrastructure.Discovery {
	return infrastructure.NewDiscovery(infrastructure.DiscoveryOptions{
		ExecPath:   cfg.ExecPath,
		KnownPaths: cfg.KnownPaths,
		CacheDir:   cfg.CacheDir,
	})
}
