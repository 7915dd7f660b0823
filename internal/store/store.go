// Package store persists the run ledger: one row per harvester invocation
// and one row per page step within it.
package store

import (
	"context"
	"errors"

	"github.com/sells-group/profile-harvest/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Kind   model.RunKind   `json:"kind,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// limit returns the effective row limit.
func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return 100
	}
	return f.Limit
}

// Store defines the persistence interface for the run ledger.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, kind model.RunKind, modelName, baseURL string) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus, errMsg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Page outcomes
	RecordPage(ctx context.Context, outcome *model.PageOutcome) error
	ListPageOutcomes(ctx context.Context, runID string) ([]model.PageOutcome, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
