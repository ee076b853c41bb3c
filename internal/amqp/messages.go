package amqp

import (
	"encoding/json"
	"time"
)

// Event types emitted by the ledger and settlement services.
const (
	EventTransactionAdded   = "transaction.added"
	EventTransactionEdited  = "transaction.edited"
	EventTransactionDeleted = "transaction.deleted"
	EventCategoryAdded      = "category.added"
	EventCategoryDeleted    = "category.deleted"
	EventExpenseShared      = "expense.shared"
	EventExpenseUnshared    = "expense.unshared"
	EventFriendAdded        = "friend.added"
	EventFriendRemoved      = "friend.removed"
)

// Event is a lightweight notification of a ledger or settlement
// mutation. Consumers that need the full entity fetch it by EntityID.
type Event struct {
	Type        string    `json:"type"`
	UserID      string    `json:"userId"`
	EntityID    string    `json:"entityId"`
	AmountCents int64     `json:"amountCents,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType, userID, entityID string, amountCents int64) *Event {
	return &Event{
		Type:        eventType,
		UserID:      userID,
		EntityID:    entityID,
		AmountCents: amountCents,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON creates an event from JSON bytes.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
