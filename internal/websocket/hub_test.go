package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubscriber captures frames; full makes Send fail like a saturated buffer
type fakeSubscriber struct {
	id          string
	workspaceID int32
	full        bool

	mu       sync.Mutex
	messages [][]byte
	closed   bool
}

func newFakeSubscriber(id string, workspaceID int32) *fakeSubscriber {
	return &fakeSubscriber{id: id, workspaceID: workspaceID}
}

func (f *fakeSubscriber) ID() string         { return f.id }
func (f *fakeSubscriber) WorkspaceID() int32 { return f.workspaceID }

func (f *fakeSubscriber) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.full {
		return ErrClientClosed
	}
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeSubscriber) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSubscriber) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSubscriber) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]Event, 0, len(f.messages))
	for _, raw := range f.messages {
		var e Event
		if err := json.Unmarshal(raw, &e); err == nil {
			events = append(events, e)
		}
	}
	return events
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	a := newFakeSubscriber("a", 1)
	b := newFakeSubscriber("b", 1)
	c := newFakeSubscriber("c", 2)

	hub.Register(a)
	hub.Register(b)
	hub.Register(c)
	hub.Register(a)

	assert.Equal(t, 2, hub.ClientCount(1))
	assert.Equal(t, 1, hub.ClientCount(2))
	assert.Equal(t, 0, hub.ClientCount(99))
	assert.Equal(t, 3, hub.TotalClientCount())

	hub.Unregister(a)
	hub.Unregister(a)
	assert.Equal(t, 1, hub.ClientCount(1))

	hub.Unregister(b)
	hub.Unregister(c)
	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_Broadcast_WorkspaceIsolation(t *testing.T) {
	hub := NewHub()
	a := newFakeSubscriber("a", 1)
	b := newFakeSubscriber("b", 1)
	other := newFakeSubscriber("other", 2)
	hub.Register(a)
	hub.Register(b)
	hub.Register(other)

	hub.Broadcast(1, ContractCreated(map[string]interface{}{"id": float64(42)}))

	for _, sub := range []*fakeSubscriber{a, b} {
		events := sub.received()
		require.Len(t, events, 1)
		assert.Equal(t, "contract.created", events[0].Type)
		assert.Equal(t, EntityTypeContract, events[0].Entity)
	}
	assert.Empty(t, other.received())
}

func TestHub_Broadcast_EvictsSaturatedSubscriber(t *testing.T) {
	hub := NewHub()
	healthy := newFakeSubscriber("healthy", 1)
	slow := newFakeSubscriber("slow", 1)
	slow.full = true
	hub.Register(healthy)
	hub.Register(slow)

	hub.Broadcast(1, AdjustmentCreated(map[string]interface{}{"id": float64(1)}))

	assert.Len(t, healthy.received(), 1)
	assert.True(t, slow.isClosed())
	assert.Equal(t, 1, hub.ClientCount(1))

	hub.Broadcast(1, AdjustmentDeleted(map[string]interface{}{"id": float64(1)}))
	assert.Len(t, healthy.received(), 2)
}

func TestHub_BroadcastToEmptyWorkspace(t *testing.T) {
	hub := NewHub()
	require.NotPanics(t, func() {
		hub.Broadcast(999, ContractCreated(map[string]interface{}{"id": float64(1)}))
	})
}

func TestHub_BroadcastUnserializablePayload(t *testing.T) {
	hub := NewHub()
	sub := newFakeSubscriber("a", 1)
	hub.Register(sub)

	hub.Broadcast(1, ContractCreated(map[string]interface{}{"bad": make(chan int)}))

	assert.Empty(t, sub.received())
	assert.Equal(t, 1, hub.ClientCount(1))
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()
	a := newFakeSubscriber("a", 1)
	b := newFakeSubscriber("b", 2)
	hub.Register(a)
	hub.Register(b)

	hub.Shutdown()
	hub.Shutdown()

	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
	assert.Equal(t, 0, hub.TotalClientCount())

	late := newFakeSubscriber("late", 1)
	hub.Register(late)
	assert.True(t, late.isClosed())
	assert.Equal(t, 0, hub.ClientCount(1))
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()
	const n = 50

	subs := make([]*fakeSubscriber, n)
	for i := range subs {
		subs[i] = newFakeSubscriber(fmt.Sprintf("sub-%d", i), int32(i%5))
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *fakeSubscriber) {
			defer wg.Done()
			hub.Register(s)
		}(sub)
	}
	wg.Wait()
	assert.Equal(t, n, hub.TotalClientCount())

	for i, sub := range subs {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			hub.Broadcast(int32(idx%5), ContractUpdated(map[string]interface{}{"id": float64(idx)}))
		}(i)
		go func(s *fakeSubscriber) {
			defer wg.Done()
			hub.Unregister(s)
		}(sub)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.TotalClientCount())
}
