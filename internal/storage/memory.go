package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/geolens/visibility-bot/internal/models"
)

// MemoryRepository keeps metrics snapshots in memory. Used for local runs
// without a storage account and as the repository in tests. Snapshots are
// stored as JSON so callers never share memory with the repository.
type MemoryRepository struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

var _ MetricsRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory metrics repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{snapshots: make(map[string][]byte)}
}

func (r *MemoryRepository) Load(ctx context.Context, brandID string) (models.VisibilityMetrics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var metrics models.VisibilityMetrics
	data, ok := r.snapshots[brandID]
	if !ok {
		return metrics, nil
	}

	if err := json.Unmarshal(data, &metrics); err != nil {
		return metrics, &PersistenceError{Op: "load", BrandID: brandID, Err: err}
	}
	return metrics, nil
}

func (r *MemoryRepository) Save(ctx context.Context, brandID string, metrics models.VisibilityMetrics) error {
	data, err := json.Marshal(metrics)
	if err != nil {
		return &PersistenceError{Op: "save", BrandID: brandID, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[brandID] = data
	return nil
}
