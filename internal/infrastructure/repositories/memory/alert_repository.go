package memory

import (
	"context"
	"fmt"
	"sync"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"
)

// MemoryAlertRepository keeps alerts in insertion order.
type MemoryAlertRepository struct {
	alerts []*domain.Alert
	ids    map[domain.AlertID]struct{}
	mu     sync.RWMutex
}

func NewMemoryAlertRepository() ports.AlertRepository {
	return &MemoryAlertRepository{
		ids: make(map[domain.AlertID]struct{}),
	}
}

func (r *MemoryAlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ids[alert.ID]; exists {
		return fmt.Errorf("alert already exists: %s", alert.ID)
	}

	cp := *alert
	r.alerts = append(r.alerts, &cp)
	r.ids[alert.ID] = struct{}{}
	return nil
}

func (r *MemoryAlertRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.alerts) {
		limit = len(r.alerts)
	}

	out := make([]*domain.Alert, 0, limit)
	for i := len(r.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.alerts[i]
		out = append(out, &cp)
	}
	return out, nil
}
