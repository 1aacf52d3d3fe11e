package migration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgconn"
)

// Execer is satisfied by *pgxpool.Pool and pgx transactions.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Migration is one idempotent schema step.
type Migration struct {
	Name string
	SQL  string
}

// Migrations creates the generation audit table. Every statement is
// idempotent so the list can run on every start.
var Migrations = []Migration{
	{
		Name: "create_resume_generations",
		SQL: `CREATE TABLE IF NOT EXISTS resume_generations (
			id UUID PRIMARY KEY,
			template_id TEXT NOT NULL,
			status TEXT NOT NULL,
			failed_stage TEXT,
			error_kind TEXT,
			enhanced BOOLEAN NOT NULL DEFAULT FALSE,
			enhancement_reason TEXT,
			bytes INTEGER NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Name: "index_resume_generations_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS resume_generations_created_at_idx ON resume_generations (created_at DESC)`,
	},
	{
		Name: "index_resume_generations_error_kind",
		SQL:  `CREATE INDEX IF NOT EXISTS resume_generations_error_kind_idx ON resume_generations (error_kind) WHERE error_kind IS NOT NULL`,
	},
}

// RunMigrations executes all migrations on startup. A nil db is a no-op.
func RunMigrations(ctx context.Context, db Execer, log *slog.Logger) error {
	if db == nil {
		return nil
	}
	if log == nil {
		log = slog.Default()
	}
	log.Info("Starting database migrations", "count", len(Migrations))

	for _, m := range Migrations {
		if _, err := db.Exec(ctx, m.SQL); err != nil {
			log.Error("Migration failed", "name", m.Name, "error", err)
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
		log.Info("Migration completed", "name", m.Name)
	}

	log.Info("All migrations completed successfully")
	return nil
}
