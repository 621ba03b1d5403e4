package storage

import (
	"context"
	"fmt"

	"github.com/geolens/visibility-bot/internal/models"
)

// MetricsRepository defines the persistence contract for visibility
// metrics: load the current snapshot for a brand, replace it with an
// updated one. Loading an untracked brand returns empty metrics, not an
// error.
type MetricsRepository interface {
	Load(ctx context.Context, brandID string) (models.VisibilityMetrics, error)
	Save(ctx context.Context, brandID string, metrics models.VisibilityMetrics) error
}

// PersistenceError marks a repository failure. It propagates to the caller
// uninterpreted; callers keep the computed metrics so the save can be
// retried without re-running the scan.
type PersistenceError struct {
	Op      string // "load" or "save"
	BrandID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s metrics for brand %s: %v", e.Op, e.BrandID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
