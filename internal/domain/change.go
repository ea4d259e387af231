package domain

import (
	"fmt"
	"strings"

	realtime_errors "restaurant-realtime/pkg/errors"
)

// Record is a database row as delivered by the change feed.
type Record map[string]any

// Get returns the value stored under key, or nil when absent.
func (r Record) Get(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// ChangeEvent is a single row-level change on a tracked table.
type ChangeEvent struct {
	Table     string
	Operation Operation
	Before    Record
	After     Record
}

// NewChangeEvent builds a ChangeEvent and checks the before/after invariants.
func NewChangeEvent(table string, op Operation, before, after Record) (ChangeEvent, error) {
	ev := ChangeEvent{Table: table, Operation: op, Before: before, After: after}
	if err := ev.Validate(); err != nil {
		return ChangeEvent{}, err
	}
	return ev, nil
}

func (e ChangeEvent) Validate() error {
	if e.Table == "" {
		return fmt.Errorf("%w: empty table", realtime_errors.ErrInvalidChange)
	}
	if e.Before == nil && e.After == nil {
		return fmt.Errorf("%w: %s %s has neither before nor after", realtime_errors.ErrInvalidChange, e.Table, e.Operation)
	}
	switch e.Operation {
	case OperationInsert:
		if e.Before != nil {
			return fmt.Errorf("%w: insert on %s carries a before image", realtime_errors.ErrInvalidChange, e.Table)
		}
	case OperationDelete:
		if e.After != nil {
			return fmt.Errorf("%w: delete on %s carries an after image", realtime_errors.ErrInvalidChange, e.Table)
		}
	case OperationUpdate:
	default:
		return fmt.Errorf("%w: %q", realtime_errors.ErrUnknownOperation, e.Operation)
	}
	return nil
}

// Record returns the row the event is about: the after image, or the before
// image for deletes.
func (e ChangeEvent) Record() Record {
	if e.After != nil {
		return e.After
	}
	return e.Before
}

// ParseOperation maps a change feed event type (INSERT, update, ...) to an Operation.
func ParseOperation(s string) (Operation, error) {
	switch Operation(strings.ToLower(strings.TrimSpace(s))) {
	case OperationInsert:
		return OperationInsert, nil
	case OperationUpdate:
		return OperationUpdate, nil
	case OperationDelete:
		return OperationDelete, nil
	}
	return "", fmt.Errorf("%w: %q", realtime_errors.ErrUnknownOperation, s)
}
