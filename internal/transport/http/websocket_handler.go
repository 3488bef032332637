package http

import (
	"log/slog"
	"net/http"
	"strings"

	gorilla "github.com/gorilla/websocket"

	"gradecli/internal/config"
	"gradecli/internal/infrastructure"
	"gradecli/internal/websocket"
)

// WebSocketHandler upgrades connections and attaches them to the hub
type WebSocketHandler struct {
	hub      *websocket.Hub
	upgrader gorilla.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a websocket handler backed by the given hub
func NewWebSocketHandler(hub *websocket.Hub, cfg *config.Config, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	allowed := cfg.Security.AllowedOrigins
	upgrader := gorilla.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range allowed {
				if o == "*" || strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}

	return &WebSocketHandler{
		hub:      hub,
		upgrader: upgrader,
		logger:   logger.With(slog.String("component", "websocket_handler")),
	}
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error response
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	client := websocket.NewClient(h.hub, conn, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
