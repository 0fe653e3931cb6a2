package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_Publish(t *testing.T) {
	hub := NewHub()
	sub := newFakeSubscriber("a", 1)
	hub.Register(sub)

	var publisher EventPublisher = hub
	publisher.Publish(1, CostSettingsUpdated(map[string]interface{}{"kind": "tax_rate"}))

	events := sub.received()
	require.Len(t, events, 1)
	assert.Equal(t, "cost_settings.updated", events[0].Type)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	var publisher EventPublisher = &NoOpPublisher{}
	assert.NotPanics(t, func() {
		publisher.Publish(1, ContractDeleted(map[string]interface{}{"id": float64(1)}))
	})
}
