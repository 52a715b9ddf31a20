package events

import (
	"encoding/json"
	"time"
)

// Actions carried by a ReceiptEvent.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
)

// ReceiptEvent is a lightweight change notification. It carries only the
// receipt id; a consumer fetches the current record itself, so a stale or
// redelivered event can never overwrite newer data.
type ReceiptEvent struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReceiptEvent(action, id string) *ReceiptEvent {
	return &ReceiptEvent{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (e *ReceiptEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ReceiptEventFromJSON(data []byte) (*ReceiptEvent, error) {
	var e ReceiptEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
