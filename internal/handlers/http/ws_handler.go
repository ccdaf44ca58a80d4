package http

import (
	"net/http"
	"strings"

	"camwatch/internal/infrastructure/broadcast"
	"camwatch/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// LiveHandler upgrades viewer connections and hands them to the hub.
type LiveHandler struct {
	hub      *broadcast.Hub
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
}

func NewLiveHandler(hub *broadcast.Hub, allowedOrigins []string, logger *zap.SugaredLogger) *LiveHandler {
	return &LiveHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// originChecker accepts requests without an Origin header (non-browser
// clients) and browser requests whose origin is listed. "*" allows all.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func (h *LiveHandler) Serve(c *gin.Context) {
	if h.hub.AtCapacity() {
		_ = c.Error(errors.NewServiceUnavailableError("viewer limit reached"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debugw("WebSocket upgrade failed", "error", err, "remote", c.ClientIP())
		return
	}

	viewer := broadcast.NewViewer(h.hub, conn)
	if err := h.hub.Register(viewer); err != nil {
		h.logger.Warnw("Rejecting viewer", "error", err, "remote", c.ClientIP())
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		_ = conn.Close()
		return
	}

	h.logger.Debugw("Viewer connected", "viewer_id", viewer.ID(), "remote", c.ClientIP())
	viewer.Serve(c.Request.Context())
}
