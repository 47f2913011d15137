// Package realtime relays task events to WebSocket clients grouped in
// project rooms.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/yukikurage/project-tracker-api/internal/authz"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"go.uber.org/zap"
)

// ErrUnauthenticated is returned by a Gate that cannot identify the caller.
var ErrUnauthenticated = errors.New("authentication required")

// Frame is a message read from a client.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Message is a message written to a client.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Gate authenticates connections and authorizes room joins. A hub without
// a gate accepts anonymous clients and lets them join any room.
type Gate interface {
	Authenticate(r *http.Request) (authz.Identity, error)
	CanJoin(ctx context.Context, id authz.Identity, projectID uint64) bool
}

type membership struct {
	client *Client
	room   string
}

type directMessage struct {
	client *Client
	msg    Message
}

type roomMessage struct {
	room string
	msg  Message
	// from is set for client emitted events; with a gate the sender must
	// be in the room.
	from *Client
}

// Hub owns the rooms. All room state is touched only by Run.
type Hub struct {
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	join       chan membership
	leave      chan membership
	direct     chan directMessage
	broadcast  chan roomMessage
	done       chan struct{}

	gate   Gate
	logger *zap.Logger
}

// NewHub creates a Hub. gate may be nil.
func NewHub(gate Gate, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		leave:      make(chan membership),
		direct:     make(chan directMessage),
		broadcast:  make(chan roomMessage, 256),
		done:       make(chan struct{}),
		gate:       gate,
		logger:     logger,
	}
}

// Run processes hub events until ctx is canceled, then disconnects every
// client and returns ctx.Err().
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			h.logger.Info("Realtime hub stopped", zap.String("reason", ctx.Err().Error()))
			return ctx.Err()

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.logger.Debug("Realtime client connected", zap.Int("total_clients", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}
			h.logger.Debug("Realtime client disconnected", zap.Int("total_clients", len(h.clients)))

		case m := <-h.join:
			if _, ok := h.clients[m.client]; !ok {
				continue
			}
			room, ok := h.rooms[m.room]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[m.room] = room
			}
			room[m.client] = struct{}{}
			h.deliver(m.client, Message{Event: constants.EventJoinedProject, Data: m.room})

		case m := <-h.leave:
			h.removeFromRoom(m.client, m.room)
			if _, ok := h.clients[m.client]; ok {
				h.deliver(m.client, Message{Event: constants.EventLeftProject, Data: m.room})
			}

		case dm := <-h.direct:
			if _, ok := h.clients[dm.client]; ok {
				h.deliver(dm.client, dm.msg)
			}

		case rm := <-h.broadcast:
			room := h.rooms[rm.room]
			if rm.from != nil && h.gate != nil {
				if _, member := room[rm.from]; !member {
					h.deliver(rm.from, Message{Event: constants.EventError, Data: "Join the project before sending updates"})
					continue
				}
			}
			for client := range room {
				h.deliver(client, rm.msg)
			}
		}
	}
}

// Publish sends a taskUpdated event to everyone in the project's room. It
// never blocks; when the hub is saturated the event is dropped.
func (h *Hub) Publish(projectID uint64, payload any) {
	rm := roomMessage{
		room: strconv.FormatUint(projectID, 10),
		msg:  Message{Event: constants.EventTaskUpdated, Data: payload},
	}

	select {
	case h.broadcast <- rm:
	default:
		h.logger.Warn("Realtime hub is saturated, dropping event", zap.Uint64("project_id", projectID))
	}
}

// enqueue hands an event to Run unless the hub has stopped.
func enqueue[T any](h *Hub, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-h.done:
		return false
	}
}

// deliver queues msg for client without blocking the hub.
func (h *Hub) deliver(client *Client, msg Message) {
	select {
	case client.send <- msg:
	default:
		h.logger.Warn("Realtime client is too slow, dropping message",
			zap.Uint64("client_id", client.id),
			zap.String("event", msg.Event),
		)
	}
}

func (h *Hub) drop(client *Client) {
	for room := range h.rooms {
		h.removeFromRoom(client, room)
	}
	delete(h.clients, client)
	close(client.send)
}

func (h *Hub) removeFromRoom(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}
