package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-resume-generator/internal/domain"
)

// Execer is the subset of *pgxpool.Pool the repository needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// GenerationsRepo stores one audit row per generation request.
type GenerationsRepo struct {
	db Execer
}

// NewGenerationsRepo wraps pool. A nil pool makes Save a no-op.
func NewGenerationsRepo(pool *pgxpool.Pool) *GenerationsRepo {
	if pool == nil {
		return &GenerationsRepo{}
	}
	return &GenerationsRepo{db: pool}
}

// NewGenerationsRepoWith uses any Execer, e.g. a transaction.
func NewGenerationsRepoWith(db Execer) *GenerationsRepo {
	return &GenerationsRepo{db: db}
}

// Enabled reports whether rows are actually written.
func (r *GenerationsRepo) Enabled() bool { return r.db != nil }

const upsertGeneration = `INSERT INTO resume_generations
	(id, template_id, status, failed_stage, error_kind, enhanced, enhancement_reason, bytes, duration_ms, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, failed_stage = EXCLUDED.failed_stage,
		error_kind = EXCLUDED.error_kind, enhanced = EXCLUDED.enhanced,
		enhancement_reason = EXCLUDED.enhancement_reason, bytes = EXCLUDED.bytes,
		duration_ms = EXCLUDED.duration_ms`

func (r *GenerationsRepo) Save(ctx context.Context, g *domain.GenerationRecord) error {
	if r.db == nil {
		return nil
	}
	_, err := r.db.Exec(ctx, upsertGeneration,
		g.ID, string(g.TemplateID), string(g.Status), nullable(string(g.FailedStage)), nullable(string(g.ErrorKind)),
		g.Enhanced, nullable(g.EnhancementReason), g.Bytes, g.Duration.Milliseconds(), g.CreatedAt)
	if err != nil {
		return fmt.Errorf("generations_repo: save %s: %w", g.ID, err)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
