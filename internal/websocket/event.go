package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeContract       EntityType = "contract"
	EntityTypeAdjustment     EntityType = "adjustment"
	EntityTypeAdjustmentLock EntityType = "adjustment_lock"
	EntityTypeAddon          EntityType = "addon"
	EntityTypeCostSettings   EntityType = "cost_settings"
)

// Additional event types for specific events
const (
	EventTypeRenewalDue  EventType = "renewal_due"
	EventTypeBulkApplied EventType = "bulk_applied"
	EventTypeImported    EventType = "imported"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "contract.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "contract"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ContractCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeContract, payload)
}

func ContractUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeContract, payload)
}

func ContractDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeContract, payload)
}

// ContractsImported creates a contract.imported event carrying the import summary
func ContractsImported(payload interface{}) Event {
	return NewEvent(EventTypeImported, EntityTypeContract, payload)
}

// ContractRenewalDue creates a contract.renewal_due event for contracts renewing inside the notice window
func ContractRenewalDue(payload interface{}) Event {
	return NewEvent(EventTypeRenewalDue, EntityTypeContract, payload)
}

func AdjustmentCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeAdjustment, payload)
}

func AdjustmentDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeAdjustment, payload)
}

// AdjustmentBulkApplied creates an adjustment.bulk_applied event with per-contract outcomes
func AdjustmentBulkApplied(payload interface{}) Event {
	return NewEvent(EventTypeBulkApplied, EntityTypeAdjustment, payload)
}

func AdjustmentLockUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeAdjustmentLock, payload)
}

func AddonCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeAddon, payload)
}

func AddonDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeAddon, payload)
}

// CostSettingsUpdated signals that cost plans, company costs, bank-slip fees or the tax rate changed
func CostSettingsUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeCostSettings, payload)
}
