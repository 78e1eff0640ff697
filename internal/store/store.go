// Package store persists verification runs. Two backends implement the same
// interface: SQLite for single-binary deployments and Postgres for shared
// ones. Results are stored as JSON documents; the run row carries only what
// listing and polling need.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/kulmaganbetov/china-factories-bot/internal/config"
	"github.com/kulmaganbetov/china-factories-bot/internal/model"
)

// ErrNotFound reports a run ID with no stored record. Callers match it with
// errors.Is.
var ErrNotFound = eris.New("store: run not found")

// RunFilter narrows ListRuns output.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store is the persistence interface for verification runs.
type Store interface {
	CreateRun(ctx context.Context, req model.ProductRequest) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, message string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// New opens the backend named by the config. An empty driver selects SQLite.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = "runs.db"
		}
		return NewSQLite(path)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver needs database_url")
		}
		return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
		})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
