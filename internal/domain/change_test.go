package domain

import (
	"encoding/json"
	"errors"
	"testing"

	realtime_errors "restaurant-realtime/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChangeEvent(t *testing.T) {
	row := Record{"id": "1"}

	tests := []struct {
		name    string
		op      Operation
		before  Record
		after   Record
		wantErr error
	}{
		{"insert", OperationInsert, nil, row, nil},
		{"update", OperationUpdate, row, row, nil},
		{"delete", OperationDelete, row, nil, nil},
		{"insert with before", OperationInsert, row, row, realtime_errors.ErrInvalidChange},
		{"delete with after", OperationDelete, row, row, realtime_errors.ErrInvalidChange},
		{"no images", OperationUpdate, nil, nil, realtime_errors.ErrInvalidChange},
		{"bad op", Operation("truncate"), nil, row, realtime_errors.ErrUnknownOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChangeEvent("orders", tt.op, tt.before, tt.after)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestChangeEvent_Record(t *testing.T) {
	before := Record{"id": "old"}
	after := Record{"id": "new"}

	assert.Equal(t, after, ChangeEvent{Operation: OperationUpdate, Before: before, After: after}.Record())
	assert.Equal(t, before, ChangeEvent{Operation: OperationDelete, Before: before}.Record())
}

func TestParseOperation(t *testing.T) {
	op, err := ParseOperation("INSERT")
	require.NoError(t, err)
	assert.Equal(t, OperationInsert, op)

	op, err = ParseOperation(" Delete ")
	require.NoError(t, err)
	assert.Equal(t, OperationDelete, op)

	_, err = ParseOperation("TRUNCATE")
	assert.ErrorIs(t, err, realtime_errors.ErrUnknownOperation)
}

func TestGroupKeys(t *testing.T) {
	assert.Equal(t, "restaurant:42", RestaurantGroup(float64(42)))
	assert.Equal(t, "user:u-1", UserGroup("u-1"))
	assert.Equal(t, "conversation:undefined", ConversationGroup(nil))
	assert.Equal(t, "restaurant:1.5", RestaurantGroup(1.5))

	kind, id, ok := ParseGroup("conversation:abc")
	require.True(t, ok)
	assert.Equal(t, GroupKindConversation, kind)
	assert.Equal(t, "abc", id)

	_, _, ok = ParseGroup("system:outbox")
	assert.False(t, ok)
	_, _, ok = ParseGroup("user:")
	assert.False(t, ok)
}

func TestIsTracked(t *testing.T) {
	assert.Len(t, TrackedTables, 12)
	assert.True(t, IsTracked(TableOrders))
	assert.False(t, IsTracked("audit_log"))
}

func TestFormatID_JSONNumber(t *testing.T) {
	assert.Equal(t, "9007199254740993", FormatID(json.Number("9007199254740993")))
}
