// Package storage persists the history of answered questions.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Storage defines run history persistence operations.
type Storage interface {
	// SaveRun stores a finished run with its documents and retrieved context.
	SaveRun(ctx context.Context, run *models.RunResult) error
	GetRun(ctx context.Context, id string) (*models.RunResult, error)
	// ListRuns returns summaries, newest first.
	ListRuns(ctx context.Context, offset, limit int) ([]*models.RunSummary, error)
	DeleteRun(ctx context.Context, id string) error

	// Stats
	CountRuns(ctx context.Context) (int64, error)
	TotalUsage(ctx context.Context) (models.TokenUsage, error)

	Close() error
}
