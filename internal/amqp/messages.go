package amqp

import (
	"encoding/json"
	"time"
)

const (
	EntityGroup       = "group"
	EntityTransaction = "transaction"
	EntityProfile     = "profile"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// BudgetEvent is a lightweight record of one mutation. It carries only
// identifiers; the worker persists it as an audit row without fetching
// anything else.
type BudgetEvent struct {
	UserID    string    `json:"user_id"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBudgetEvent creates an event stamped with the current time.
func NewBudgetEvent(userID, entity, entityID, action string) *BudgetEvent {
	return &BudgetEvent{
		UserID:    userID,
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *BudgetEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// BudgetEventFromJSON creates an event from JSON bytes.
func BudgetEventFromJSON(data []byte) (*BudgetEvent, error) {
	var ev BudgetEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
