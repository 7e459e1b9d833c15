package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/parley-chat/parley/internal/dependencies/random"
	"github.com/parley-chat/parley/internal/model"
	"github.com/parley-chat/parley/internal/services/chat"
)

const (
	connectionIDLength   = 20
	connectionIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Handler upgrades HTTP requests to WebSocket connections and hands them to
// the chat controller.
type Handler struct {
	controller *chat.Controller
	random     random.Random
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

func NewHandler(controller *chat.Controller, rnd random.Random, logger *slog.Logger) *Handler {
	return &Handler{
		controller: controller,
		random:     rnd,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Connections start unauthenticated and everything of value
			// requires a join token, so cross-origin upgrades are allowed.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.Any("error", err))
		return
	}

	connID := model.ConnectionID("conn-" + h.random.String(connectionIDLength, connectionIDAlphabet))
	client := newClient(connID, conn, h.controller, h.logger)

	h.logger.Info("connection opened",
		slog.String("connection_id", string(connID)),
		slog.String("remote_addr", r.RemoteAddr))

	h.controller.Connect(client)
	client.run(r.Context())

	h.logger.Info("connection closed", slog.String("connection_id", string(connID)))
}
