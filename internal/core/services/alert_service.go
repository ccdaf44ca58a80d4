package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"camwatch/internal/core/domain"
	"camwatch/internal/core/ports"
	"camwatch/pkg/tracing"
	"camwatch/pkg/utils"

	"go.uber.org/zap"
)

const (
	DefaultAlertListLimit = 50
	MaxAlertListLimit     = 500
)

type alertService struct {
	alerts      ports.AlertRepository
	broadcaster ports.Broadcaster
	clock       *monotonicClock
	logger      *zap.SugaredLogger
}

func NewAlertService(alerts ports.AlertRepository, broadcaster ports.Broadcaster, logger *zap.SugaredLogger) ports.AlertService {
	return &alertService{
		alerts:      alerts,
		broadcaster: broadcaster,
		clock:       newMonotonicClock(time.Now),
		logger:      logger,
	}
}

// Submit persists the alert and only then pushes it to the live viewers.
func (s *alertService) Submit(ctx context.Context, in ports.SubmitAlertInput) (*domain.Alert, error) {
	ctx, span := tracing.TraceAlertIngestion(ctx, string(in.CameraID))
	defer span.End()

	alert := &domain.Alert{
		ID:        domain.AlertID(utils.NewEntityID()),
		Message:   in.Message,
		CameraID:  in.CameraID,
		ImageURL:  in.ImageURL,
		CreatedAt: s.clock.Now(),
	}
	span.SetAttributes(tracing.AlertIDKey.String(string(alert.ID)))

	if err := s.alerts.Create(ctx, alert); err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("persist alert: %w", err)
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("encode alert: %w", err)
	}

	delivered := s.broadcaster.Broadcast(payload)
	span.SetAttributes(tracing.ViewerCountKey.Int(delivered))

	s.logger.Infow("Alert ingested",
		"alert_id", alert.ID,
		"camera_id", alert.CameraID,
		"viewers", delivered,
	)
	return alert, nil
}

func (s *alertService) ListRecent(ctx context.Context, limit int) ([]*domain.Alert, error) {
	if limit <= 0 {
		limit = DefaultAlertListLimit
	}
	if limit > MaxAlertListLimit {
		limit = MaxAlertListLimit
	}
	return s.alerts.ListRecent(ctx, limit)
}

// monotonicClock never hands out a timestamp earlier than the previous one,
// even if the wall clock steps backwards.
type monotonicClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newMonotonicClock(now func() time.Time) *monotonicClock {
	return &monotonicClock{now: now}
}

func (c *monotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}
