// =============================================================================
// Contas Publicas - Forecast Run Store
// =============================================================================
//
// This module publishes forecast runs to PostgreSQL so dashboards can chart
// history and predictions side by side.
//
// TABLES (see migrations/):
//   - forecast_runs:   one row per run (run id, target, horizon, status)
//   - forecast_points: history and forecast values per scope and month
//
// A run is written in a single transaction; a failure leaves nothing behind.
//
// =============================================================================

package store

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/contas-publicas/internal/types"
)

//go:embed migrations/*.sql
var migrations embed.FS

// GlobalScope names the all-categories series.
const GlobalScope = "__global__"

// Point kinds.
const (
	KindHistory  = "history"
	KindForecast = "forecast"
)

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Scope is one series of a run: the global series or a category.
type Scope struct {
	Name     string
	History  types.MonthlySeries
	Forecast []types.ForecastPoint
}

// Run is everything persisted for one forecast run.
type Run struct {
	ID          string
	GeneratedAt time.Time
	TargetField string
	Horizon     int
	Status      string
	FilesRead   int
	FilesFailed int
	Scopes      []Scope
}

// Store writes runs.
type Store struct {
	db     DB
	logger *slog.Logger
}

// New creates a Store over db. A nil logger discards output.
func New(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, logger: logger}
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

const (
	insertRun = `INSERT INTO forecast_runs
	(run_id, generated_at, target_field, horizon_months, status, files_read, files_failed)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	insertPoint = `INSERT INTO forecast_points (run_id, scope, month, kind, value)
	VALUES ($1, $2, $3, $4, $5)`
)

// SaveRun writes run and all of its points in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	points, err := s.saveRun(ctx, tx, run)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Warn("rollback failed", "run_id", run.ID, "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}

	s.logger.Info("run published", "run_id", run.ID, "scopes", len(run.Scopes), "points", points)
	return nil
}

func (s *Store) saveRun(ctx context.Context, tx pgx.Tx, run Run) (int, error) {
	if _, err := tx.Exec(ctx, insertRun,
		run.ID, run.GeneratedAt, run.TargetField, run.Horizon, run.Status, run.FilesRead, run.FilesFailed,
	); err != nil {
		return 0, fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	n := 0
	for _, scope := range run.Scopes {
		for _, p := range scope.History {
			if err := insertValue(ctx, tx, run.ID, scope.Name, p.Month, KindHistory, p.Value); err != nil {
				return n, err
			}
			n++
		}
		for _, p := range scope.Forecast {
			if err := insertValue(ctx, tx, run.ID, scope.Name, p.Month, KindForecast, p.Value); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

func insertValue(ctx context.Context, tx pgx.Tx, runID, scope string, month types.Month, kind string, v float64) error {
	value := decimal.NewFromFloat(v).Round(2).InexactFloat64()
	if _, err := tx.Exec(ctx, insertPoint, runID, scope, month.Time(), kind, value); err != nil {
		return fmt.Errorf("failed to insert %s point %s/%s: %w", kind, scope, month, err)
	}
	return nil
}
