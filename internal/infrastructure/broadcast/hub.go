package broadcast

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrHubClosed    = errors.New("hub is shut down")
	ErrHubFull      = errors.New("viewer limit reached")
	ErrViewerClosed = errors.New("viewer connection already closed")
)

// Reasons passed to Observer.ViewerUnregistered.
const (
	ReasonDisconnected = "disconnected"
	ReasonSlowConsumer = "slow_consumer"
	ReasonShutdown     = "shutdown"
)

// Config holds per-connection timings and hub limits.
type Config struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	SendBuffer     int
	MaxMessageSize int64
	// MaxViewers caps concurrent viewers; zero means unlimited.
	MaxViewers int
}

func DefaultConfig() Config {
	return Config{
		PingInterval:   30 * time.Second,
		PongTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		SendBuffer:     64,
		MaxMessageSize: 4096,
	}
}

// Observer receives membership and delivery events. Calls are made while the
// hub lock is held and must not call back into the hub.
type Observer interface {
	ViewerRegistered(total int)
	ViewerUnregistered(total int, reason string)
	Broadcasted(delivered int)
}

type nopObserver struct{}

func (nopObserver) ViewerRegistered(int)           {}
func (nopObserver) ViewerUnregistered(int, string) {}
func (nopObserver) Broadcasted(int)                {}

// Hub is the set of live viewers. A single mutex guards membership; Broadcast
// enqueues under that mutex so every viewer sees payloads in submission order.
type Hub struct {
	cfg      Config
	observer Observer
	logger   *zap.SugaredLogger

	mu      sync.RWMutex
	viewers map[*Viewer]struct{}
	closed  bool

	serving sync.WaitGroup
}

func NewHub(cfg Config, observer Observer, logger *zap.SugaredLogger) *Hub {
	defaults := DefaultConfig()
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaults.PingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = defaults.PongTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaults.SendBuffer
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaults.MaxMessageSize
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Hub{
		cfg:      cfg,
		observer: observer,
		logger:   logger,
		viewers:  make(map[*Viewer]struct{}),
	}
}

// Register adds v to the membership set. Registering a member again is a no-op.
func (h *Hub) Register(v *Viewer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	if v.queueClosed || v.isDone() {
		return ErrViewerClosed
	}
	if _, ok := h.viewers[v]; ok {
		return nil
	}
	if h.cfg.MaxViewers > 0 && len(h.viewers) >= h.cfg.MaxViewers {
		return ErrHubFull
	}

	h.viewers[v] = struct{}{}
	h.observer.ViewerRegistered(len(h.viewers))
	h.logger.Infow("Viewer registered", "viewer_id", v.ID(), "total_viewers", len(h.viewers))
	return nil
}

// Unregister removes v and closes its outbound queue. Unknown viewers are ignored.
func (h *Hub) Unregister(v *Viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(v, ReasonDisconnected)
}

func (h *Hub) removeLocked(v *Viewer, reason string) {
	if _, ok := h.viewers[v]; !ok {
		return
	}
	delete(h.viewers, v)
	v.queueClosed = true
	close(v.send)

	h.observer.ViewerUnregistered(len(h.viewers), reason)
	h.logger.Infow("Viewer unregistered",
		"viewer_id", v.ID(),
		"reason", reason,
		"total_viewers", len(h.viewers),
	)
}

// Broadcast queues payload for every member and returns how many accepted it.
// A viewer that is gone or whose queue is full is dropped; the rest still
// receive the payload.
func (h *Hub) Broadcast(payload []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for v := range h.viewers {
		if v.isDone() {
			h.removeLocked(v, ReasonDisconnected)
			continue
		}
		select {
		case v.send <- payload:
			delivered++
		default:
			h.removeLocked(v, ReasonSlowConsumer)
		}
	}

	h.observer.Broadcasted(delivered)
	return delivered
}

// Count returns the number of registered viewers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// AtCapacity reports whether a new viewer would be rejected with ErrHubFull.
func (h *Hub) AtCapacity() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg.MaxViewers > 0 && len(h.viewers) >= h.cfg.MaxViewers
}

// beginServe accounts for a running connection unless the hub is closed.
func (h *Hub) beginServe() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.serving.Add(1)
	return true
}

// Shutdown closes every viewer, rejects later registrations and waits for the
// connection pumps to exit or ctx to end.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		total := len(h.viewers)
		for v := range h.viewers {
			h.removeLocked(v, ReasonShutdown)
		}
		h.logger.Infow("Broadcast hub shut down", "closed_viewers", total)
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.serving.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
