// Package store persists sweep runs and the scene cache.
package store

import (
	"context"
	"time"

	"github.com/starfield-lab/astrobench/internal/model"
)

// SweepStatus tracks the lifecycle of a persisted sweep.
type SweepStatus string

const (
	SweepStatusRunning  SweepStatus = "running"
	SweepStatusComplete SweepStatus = "complete"
)

// SweepRecord is one persisted sweep run.
type SweepRecord struct {
	ID          string      `json:"id"`
	Status      SweepStatus `json:"status"`
	Scenes      []string    `json:"scenes"`
	Configs     []string    `json:"configs"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// SweepFilter specifies criteria for listing sweeps.
type SweepFilter struct {
	Status SweepStatus `json:"status,omitempty"`
	Limit  int         `json:"limit,omitempty"`
	Offset int         `json:"offset,omitempty"`
}

// Store defines the persistence interface for the benchmark engine. The
// engine itself runs without one; persistence is an opt-in collaborator.
type Store interface {
	// Sweeps
	CreateSweep(ctx context.Context, scenes, configs []string) (string, error)
	SaveCell(ctx context.Context, sweepID string, cell model.CellResult) error
	CompleteSweep(ctx context.Context, sweepID string) error
	GetSweep(ctx context.Context, sweepID string) (*SweepRecord, error)
	ListSweeps(ctx context.Context, filter SweepFilter) ([]SweepRecord, error)
	ListCells(ctx context.Context, sweepID string) ([]model.CellResult, error)

	// Scene cache
	GetCachedScene(ctx context.Context, name string, seed uint64) (*model.Image, model.SourceTable, error)
	PutCachedScene(ctx context.Context, name string, seed uint64, img model.Image, truth model.SourceTable, ttl time.Duration) error
	DeleteExpiredScenes(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
