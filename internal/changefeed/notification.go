package changefeed

import (
	"bytes"
	"encoding/json"
	"fmt"

	"restaurant-realtime/internal/domain"
	realtime_errors "restaurant-realtime/pkg/errors"
)

// Notification is the payload published by the realtime_notify trigger.
type Notification struct {
	EventType string        `json:"eventType"`
	Schema    string        `json:"schema"`
	Table     string        `json:"table"`
	New       domain.Record `json:"new"`
	Old       domain.Record `json:"old"`
	// Truncated is set when the row was too wide for NOTIFY and only its id
	// columns were sent.
	Truncated bool `json:"truncated,omitempty"`
}

// DecodeNotification parses a notification payload. Numbers are kept as
// json.Number so large ids survive.
func DecodeNotification(payload []byte) (Notification, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var n Notification
	if err := dec.Decode(&n); err != nil {
		return Notification{}, fmt.Errorf("%w: decoding notification: %v", realtime_errors.ErrInvalidChange, err)
	}
	return n, nil
}

// ChangeEvent converts the notification into a validated domain change.
func (n Notification) ChangeEvent() (domain.ChangeEvent, error) {
	op, err := domain.ParseOperation(n.EventType)
	if err != nil {
		return domain.ChangeEvent{}, err
	}
	before, after := n.Old, n.New
	// postgres row images: inserts carry no old row, deletes no new row.
	switch op {
	case domain.OperationInsert:
		before = nil
	case domain.OperationDelete:
		after = nil
	}
	return domain.NewChangeEvent(n.Table, op, before, after)
}
