package realtime

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yukikurage/project-tracker-api/internal/authz"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"go.uber.org/zap"
)

// Handler upgrades HTTP requests to hub clients.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a Handler. An empty allowedOrigins accepts any origin.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// Serve handles GET /ws
func (h *Handler) Serve(c *gin.Context) {
	var identity *authz.Identity
	if h.hub.gate != nil {
		id, err := h.hub.gate.Authenticate(c.Request)
		if err != nil {
			apierrors.Abort(c, apierrors.KindUnauthorized, "")
			return
		}
		identity = &id
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.hub.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h.hub, conn, identity)
	if !enqueue(h.hub, h.hub.register, client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
