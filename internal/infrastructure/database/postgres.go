package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"complyguard-lab/internal/config"
	"complyguard-lab/pkg/logger"
)

// PostgresDB wraps the pgx connection pool
type PostgresDB struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgres creates a new PostgreSQL connection pool
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*PostgresDB, error) {
	log = log.WithComponent("postgres")
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Str("dbname", cfg.DBName).Msg("connecting to PostgreSQL")

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("connected to PostgreSQL successfully")

	return &PostgresDB{
		pool:   pool,
		logger: log,
	}, nil
}

// Pool returns the underlying connection pool
func (db *PostgresDB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the connection pool
func (db *PostgresDB) Close() {
	db.logger.Info().Msg("closing PostgreSQL connection pool")
	db.pool.Close()
}

// Ping checks the database connection
func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// WithTx executes a function within a transaction
func (db *PostgresDB) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// migrations is the ordered schema for the compliance store. Statements are
// idempotent so Migrate can run on every startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS assessment_results (
		id              UUID PRIMARY KEY,
		session_id      TEXT NOT NULL,
		overall_score   DOUBLE PRECISION NOT NULL,
		trust_score     DOUBLE PRECISION NOT NULL,
		trend_direction TEXT NOT NULL,
		payload         JSONB NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assessment_results_session
		ON assessment_results (session_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS compliance_gaps (
		id            UUID PRIMARY KEY,
		assessment_id UUID NOT NULL,
		framework_id  TEXT NOT NULL,
		control_id    TEXT NOT NULL,
		severity      TEXT NOT NULL,
		gap_type      TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		impact        TEXT NOT NULL DEFAULT '',
		remediation   TEXT NOT NULL DEFAULT '',
		owner         TEXT NOT NULL DEFAULT '',
		target_date   TIMESTAMPTZ NOT NULL,
		status        TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_compliance_gaps_framework
		ON compliance_gaps (framework_id, severity, status)`,

	`CREATE TABLE IF NOT EXISTS gap_events (
		id          UUID PRIMARY KEY,
		gap_id      UUID NOT NULL,
		from_status TEXT NOT NULL,
		to_status   TEXT NOT NULL,
		actor       TEXT NOT NULL DEFAULT '',
		note        TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_gap_events_gap ON gap_events (gap_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS breach_incidents (
		id                   UUID PRIMARY KEY,
		detected_at          TIMESTAMPTZ NOT NULL,
		nature               TEXT NOT NULL,
		context              JSONB NOT NULL,
		risk                 JSONB NOT NULL,
		notification         JSONB NOT NULL,
		supervisory_required BOOLEAN NOT NULL,
		supervisory_deadline TIMESTAMPTZ NOT NULL,
		status               TEXT NOT NULL,
		actions              JSONB,
		created_at           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_breach_incidents_deadline
		ON breach_incidents (supervisory_required, supervisory_deadline)
		WHERE supervisory_required`,

	`CREATE TABLE IF NOT EXISTS incident_events (
		id          UUID PRIMARY KEY,
		incident_id UUID NOT NULL,
		from_status TEXT NOT NULL,
		to_status   TEXT NOT NULL,
		channel     TEXT,
		reported_at TIMESTAMPTZ,
		note        TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_incident_events_incident
		ON incident_events (incident_id, created_at)`,
}

// Migrate applies the compliance schema
func (db *PostgresDB) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	db.logger.Info().Int("statements", len(migrations)).Msg("schema migrations applied")
	return nil
}
