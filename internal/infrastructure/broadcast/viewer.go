package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var viewerIDCounter atomic.Uint64

// Viewer is one live connection. The hub writes into its queue; Serve moves
// queued payloads onto the socket.
type Viewer struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// queueClosed is guarded by hub.mu.
	queueClosed bool

	done     chan struct{}
	doneOnce sync.Once
}

func NewViewer(hub *Hub, conn *websocket.Conn) *Viewer {
	return &Viewer{
		id:   viewerIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.cfg.SendBuffer),
		done: make(chan struct{}),
	}
}

func (v *Viewer) ID() uint64 {
	return v.id
}

// Done is closed once the connection has ended.
func (v *Viewer) Done() <-chan struct{} {
	return v.done
}

func (v *Viewer) isDone() bool {
	select {
	case <-v.done:
		return true
	default:
		return false
	}
}

func (v *Viewer) markDone() {
	v.doneOnce.Do(func() { close(v.done) })
}

// Serve runs the read and write pumps until either side ends, then
// unregisters the viewer and closes the connection. It blocks.
func (v *Viewer) Serve(ctx context.Context) {
	if !v.hub.beginServe() {
		v.markDone()
		_ = v.conn.Close()
		return
	}
	defer v.hub.serving.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		v.readPump()
	}()

	v.writePump(ctx)

	v.markDone()
	v.hub.Unregister(v)
	_ = v.conn.Close()
	<-readDone
}

// readPump discards inbound frames; it exists to process control frames and
// to notice when the peer goes away.
func (v *Viewer) readPump() {
	cfg := v.hub.cfg
	v.conn.SetReadLimit(cfg.MaxMessageSize)
	if err := v.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout)); err != nil {
		return
	}
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				v.hub.logger.Debugw("Viewer read ended", "viewer_id", v.id, "error", err)
			}
			return
		}
	}
}

func (v *Viewer) writePump(ctx context.Context) {
	cfg := v.hub.cfg
	ticker := time.NewTicker(cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			v.writeClose()
			return

		case payload, ok := <-v.send:
			if !ok {
				v.writeClose()
				return
			}
			if err := v.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout)); err != nil {
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				v.hub.logger.Debugw("Viewer write failed", "viewer_id", v.id, "error", err)
				return
			}

		case <-ticker.C:
			if err := v.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout)); err != nil {
				return
			}
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (v *Viewer) writeClose() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = v.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(v.hub.cfg.WriteTimeout))
}
