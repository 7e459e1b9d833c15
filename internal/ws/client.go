// Package ws carries the chat event channel over WebSocket. Each accepted
// connection gets a client with a read pump feeding the chat controller and
// a write pump draining a buffered send queue.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/parley-chat/parley/internal/model"
	"github.com/parley-chat/parley/internal/protocol"
	"github.com/parley-chat/parley/internal/services/chat"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	// readLimit bounds a single inbound frame. Generous compared to the
	// message length limit so oversized chat text is rejected with a
	// protocol error rather than a dropped connection.
	readLimit = 64 * 1024

	sendQueueSize = 256
)

// Client binds one WebSocket connection to the chat controller.
type Client struct {
	id         model.ConnectionID
	conn       *websocket.Conn
	controller *chat.Controller
	logger     *slog.Logger

	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(id model.ConnectionID, conn *websocket.Conn, controller *chat.Controller, logger *slog.Logger) *Client {
	conn.SetReadLimit(readLimit)
	return &Client{
		id:         id,
		conn:       conn,
		controller: controller,
		logger:     logger.With(slog.String("connection_id", string(id))),
		send:       make(chan []byte, sendQueueSize),
		done:       make(chan struct{}),
	}
}

// ID implements chat.Sender.
func (c *Client) ID() model.ConnectionID {
	return c.id
}

// Send implements chat.Sender. It never blocks the caller: if the queue is
// full the connection is too far behind and gets closed instead.
func (c *Client) Send(ev protocol.ServerEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error("failed to encode server event", slog.Any("error", err))
		return
	}
	select {
	case c.send <- payload:
	case <-c.done:
	default:
		c.logger.Warn("send queue full, dropping connection")
		c.close()
	}
}

// run blocks until the connection is torn down.
func (c *Client) run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("error closing connection", slog.Any("error", err))
		}
	})
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.controller.Disconnect(c.id)
		c.close()
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Debug("error setting read deadline", slog.Any("error", err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.logger.Warn("unexpected connection error", slog.Any("error", err))
			}
			return
		}

		var ev protocol.ClientEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.logger.Debug("dropping malformed event", slog.Any("error", err))
			c.Send(protocol.Error(model.ErrInvalidMessage))
			continue
		}

		c.controller.HandleEvent(ctx, c.id, ev)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case payload := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
