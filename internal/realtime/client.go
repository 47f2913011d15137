package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

var clientIDCounter atomic.Uint64

// Client is a middleman between one websocket connection and the hub
type Client struct {
	id       uint64
	hub      *Hub
	conn     *websocket.Conn
	send     chan Message
	identity *authz.Identity
}

func newClient(hub *Hub, conn *websocket.Conn, identity *authz.Identity) *Client {
	return &Client{
		id:       clientIDCounter.Add(1),
		hub:      hub,
		conn:     conn,
		send:     make(chan Message, sendBuffer),
		identity: identity,
	}
}

// readPump reads client frames until the connection fails
func (c *Client) readPump() {
	defer func() {
		enqueue(c.hub, c.hub.unregister, c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("Unexpected websocket close", zap.Uint64("client_id", c.id), zap.Error(err))
			}
			return
		}

		if !c.handle(frame) {
			return
		}
	}
}

// handle dispatches one frame. It returns false once the hub has stopped.
func (c *Client) handle(frame Frame) bool {
	switch frame.Event {
	case constants.EventJoinProject:
		room, ok := roomFromJSON(frame.Data)
		if !ok {
			return c.reject("Invalid project id")
		}
		if !c.mayJoin(room) {
			return c.reject("Access denied")
		}
		return enqueue(c.hub, c.hub.join, membership{client: c, room: room})

	case constants.EventLeaveProject:
		room, ok := roomFromJSON(frame.Data)
		if !ok {
			return c.reject("Invalid project id")
		}
		return enqueue(c.hub, c.hub.leave, membership{client: c, room: room})

	case constants.EventTaskUpdate:
		var target struct {
			ProjectID json.RawMessage `json:"projectId"`
		}
		if err := json.Unmarshal(frame.Data, &target); err != nil {
			return c.reject("Invalid task update")
		}
		room, ok := roomFromJSON(target.ProjectID)
		if !ok {
			return c.reject("Invalid project id")
		}
		return enqueue(c.hub, c.hub.broadcast, roomMessage{
			room: room,
			msg:  Message{Event: constants.EventTaskUpdated, Data: frame.Data},
			from: c,
		})
	}

	return true
}

// mayJoin applies the hub's gate, if any
func (c *Client) mayJoin(room string) bool {
	if c.hub.gate == nil {
		return true
	}
	if c.identity == nil {
		return false
	}
	projectID, err := strconv.ParseUint(room, 10, 64)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	return c.hub.gate.CanJoin(ctx, *c.identity, projectID)
}

// reject answers a bad frame with an error event. The send channel is
// owned by the hub, so the reply goes through it.
func (c *Client) reject(reason string) bool {
	return enqueue(c.hub, c.hub.direct, directMessage{
		client: c,
		msg:    Message{Event: constants.EventError, Data: reason},
	})
}

// writePump writes queued messages and keeps the connection alive
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.logger.Debug("Failed to write websocket message", zap.Uint64("client_id", c.id), zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// roomFromJSON accepts a project id sent either as a string or a number.
// Numeric ids are canonicalized so "007" and 7 name the same room.
func roomFromJSON(data json.RawMessage) (string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64); err == nil {
			return strconv.FormatUint(n, 10), true
		}
		return s, s != ""
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		if _, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
			return n.String(), true
		}
	}

	return "", false
}
