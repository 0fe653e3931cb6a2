package websocket

import (
	"errors"
	"sync"

	"github.com/margem-saas/margem-backend/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when sending to a subscriber that is closed or cannot keep up
var ErrClientClosed = errors.New("client is closed")

// Subscriber is one live connection bound to a workspace
type Subscriber interface {
	ID() string
	WorkspaceID() int32
	Send(data []byte) error
	Close() error
}

// Hub fans workspace events out to the live connections of that workspace.
// Subscribers that cannot take a message are evicted.
type Hub struct {
	rooms  map[int32]map[string]Subscriber
	mu     sync.RWMutex
	closed bool
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{rooms: make(map[int32]map[string]Subscriber)}
}

// Register joins a subscriber to its workspace room. Registering after Shutdown closes the subscriber.
func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = sub.Close()
		return
	}
	room := h.rooms[sub.WorkspaceID()]
	if room == nil {
		room = make(map[string]Subscriber)
		h.rooms[sub.WorkspaceID()] = room
	}
	if _, exists := room[sub.ID()]; !exists {
		metrics.LiveConnections.Inc()
	}
	room[sub.ID()] = sub
	h.mu.Unlock()

	log.Debug().
		Int32("workspace_id", sub.WorkspaceID()).
		Str("client_id", sub.ID()).
		Msg("Live subscriber joined")
}

// Unregister removes a subscriber; unknown subscribers are ignored
func (h *Hub) Unregister(sub Subscriber) {
	if h.remove(sub.WorkspaceID(), sub.ID()) {
		log.Debug().
			Int32("workspace_id", sub.WorkspaceID()).
			Str("client_id", sub.ID()).
			Msg("Live subscriber left")
	}
}

func (h *Hub) remove(workspaceID int32, id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[workspaceID]
	if !ok {
		return false
	}
	if _, exists := room[id]; !exists {
		return false
	}
	delete(room, id)
	if len(room) == 0 {
		delete(h.rooms, workspaceID)
	}
	metrics.LiveConnections.Dec()
	return true
}

// Broadcast serializes event once and hands it to every subscriber of the workspace.
// Send never blocks; a subscriber whose buffer is full is dropped from the room and closed.
func (h *Hub) Broadcast(workspaceID int32, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int32("workspace_id", workspaceID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	subs := h.snapshot(workspaceID)
	if len(subs) == 0 {
		return
	}

	delivered := 0
	for _, sub := range subs {
		if err := sub.Send(data); err != nil {
			metrics.RecordDelivery(event.Type, false)
			log.Warn().
				Err(err).
				Int32("workspace_id", workspaceID).
				Str("client_id", sub.ID()).
				Str("event_type", event.Type).
				Msg("Evicting live subscriber")
			h.remove(workspaceID, sub.ID())
			_ = sub.Close()
			continue
		}
		metrics.RecordDelivery(event.Type, true)
		delivered++
	}

	log.Debug().
		Int32("workspace_id", workspaceID).
		Str("event_type", event.Type).
		Int("delivered", delivered).
		Int("subscribers", len(subs)).
		Msg("Broadcast event")
}

func (h *Hub) snapshot(workspaceID int32) []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[workspaceID]
	subs := make([]Subscriber, 0, len(room))
	for _, sub := range room {
		subs = append(subs, sub)
	}
	return subs
}

// ClientCount returns the number of subscribers in a workspace
func (h *Hub) ClientCount(workspaceID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[workspaceID])
}

// TotalClientCount returns the number of subscribers across all workspaces
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, room := range h.rooms {
		total += len(room)
	}
	return total
}

// Shutdown closes every subscriber and refuses new registrations
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	var subs []Subscriber
	for _, room := range h.rooms {
		for _, sub := range room {
			subs = append(subs, sub)
		}
	}
	h.rooms = make(map[int32]map[string]Subscriber)
	h.mu.Unlock()

	metrics.LiveConnections.Sub(float64(len(subs)))
	for _, sub := range subs {
		_ = sub.Close()
	}
	log.Info().Int("subscribers", len(subs)).Msg("Live hub shut down")
}
