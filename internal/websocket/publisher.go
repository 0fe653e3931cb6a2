package websocket

// EventPublisher delivers domain events to the live connections of a workspace
type EventPublisher interface {
	Publish(workspaceID int32, event Event)
}

var _ EventPublisher = (*Hub)(nil)

// Publish broadcasts event to the workspace room
func (h *Hub) Publish(workspaceID int32, event Event) {
	h.Broadcast(workspaceID, event)
}

// NoOpPublisher discards events
type NoOpPublisher struct{}

func (n *NoOpPublisher) Publish(workspaceID int32, event Event) {}
