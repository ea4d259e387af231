package realtime

import (
	"encoding/json"
	"testing"

	"restaurant-realtime/internal/domain"
	"restaurant-realtime/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	user := domain.Record{"id": "u1", "name": "Lan"}

	t.Run("insert", func(t *testing.T) {
		_, got := dispatch(mustChange("users", domain.OperationInsert, nil, user))
		require.Len(t, got, 1)
		assert.Equal(t, "user:u1", got[0].Group)
		assert.Equal(t, events.EventProfileUpdated, got[0].Event)
		assert.Equal(t, user, got[0].Payload["user"])
	})

	t.Run("update", func(t *testing.T) {
		renamed := domain.Record{"id": "u1", "name": "Lan Anh"}
		_, got := dispatch(mustChange("users", domain.OperationUpdate, user, renamed))
		require.Len(t, got, 2)
		assert.Equal(t, "user:u1", got[0].Group)
		assert.Equal(t, events.EventUserUpdated, got[1].Event)
		assert.Empty(t, got[1].Group)
	})

	t.Run("delete", func(t *testing.T) {
		_, got := dispatch(mustChange("users", domain.OperationDelete, user, nil))
		require.Len(t, got, 1)
		assert.Equal(t, events.EventUserDeleted, got[0].Event)
		assert.Empty(t, got[0].Group)
		assert.Equal(t, "u1", got[0].Payload["id"])
		assert.NotContains(t, got[0].Payload, "user")
	})
}

func TestOrders(t *testing.T) {
	pending := domain.Record{"id": "o1", "restaurant_id": "r1", "customer_id": "u1", "status": "pending", "total": 120.0}

	t.Run("insert notifies restaurant and customer", func(t *testing.T) {
		_, got := dispatch(mustChange("orders", domain.OperationInsert, nil, pending))
		require.Len(t, got, 2)
		assert.Equal(t, events.Emission{Group: "restaurant:r1", Event: events.EventNewOrder, Payload: events.Payload{"order": pending, "timestamp": fixedTimestamp}}, got[0])
		assert.Equal(t, "user:u1", got[1].Group)
		assert.Equal(t, events.EventOrderCreated, got[1].Event)
	})

	t.Run("status change notifies both groups", func(t *testing.T) {
		ready := domain.Record{"id": "o1", "restaurant_id": "r1", "customer_id": "u1", "status": "ready", "total": 120.0}
		_, got := dispatch(mustChange("orders", domain.OperationUpdate, pending, ready))
		require.Len(t, got, 2)

		groups := []string{got[0].Group, got[1].Group}
		assert.ElementsMatch(t, []string{"user:u1", "restaurant:r1"}, groups)
		for _, em := range got {
			assert.Equal(t, events.EventOrderStatusUpdated, em.Event)
			assert.Equal(t, "pending", em.Payload["old_status"])
			assert.Equal(t, "ready", em.Payload["new_status"])
		}
	})

	t.Run("non-status update is silent", func(t *testing.T) {
		repriced := domain.Record{"id": "o1", "restaurant_id": "r1", "customer_id": "u1", "status": "pending", "total": 99.0}
		generic, got := dispatch(mustChange("orders", domain.OperationUpdate, pending, repriced))
		assert.Empty(t, got)
		assert.Equal(t, "orders_update", generic.Event)
	})

	t.Run("missing customer renders undefined group", func(t *testing.T) {
		anon := domain.Record{"id": "o2", "restaurant_id": "r1", "status": "pending"}
		_, got := dispatch(mustChange("orders", domain.OperationInsert, nil, anon))
		require.Len(t, got, 2)
		assert.Equal(t, "user:undefined", got[1].Group)
	})
}

func TestMenuItems(t *testing.T) {
	item := domain.Record{"id": "m1", "restaurant_id": "r1", "name": "Bun cha", "price": 55000.0, "is_available": true}

	t.Run("insert is a single global emission", func(t *testing.T) {
		_, got := dispatch(mustChange("menu_items", domain.OperationInsert, nil, item))
		require.Len(t, got, 1)
		assert.Empty(t, got[0].Group)
		assert.Equal(t, events.EventMenuItemAdded, got[0].Event)
		assert.Equal(t, item, got[0].Payload["item"])
	})

	t.Run("update annotates price and availability", func(t *testing.T) {
		soldOut := domain.Record{"id": "m1", "restaurant_id": "r1", "name": "Bun cha", "price": 60000.0, "is_available": false}
		_, got := dispatch(mustChange("menu_items", domain.OperationUpdate, item, soldOut))
		require.Len(t, got, 1)
		p := got[0].Payload
		assert.Equal(t, events.EventMenuItemUpdated, got[0].Event)
		assert.Equal(t, true, p["availability_changed"])
		assert.Equal(t, true, p["price_changed"])
		assert.Equal(t, 55000.0, p["old_price"])
		assert.Equal(t, 60000.0, p["new_price"])
		assert.Equal(t, []string{"is_available", "price"}, p["changed_fields"])
	})

	t.Run("rename leaves flags false", func(t *testing.T) {
		renamed := domain.Record{"id": "m1", "restaurant_id": "r1", "name": "Bun cha Ha Noi", "price": 55000.0, "is_available": true}
		_, got := dispatch(mustChange("menu_items", domain.OperationUpdate, item, renamed))
		require.Len(t, got, 1)
		assert.Equal(t, false, got[0].Payload["availability_changed"])
		assert.Equal(t, false, got[0].Payload["price_changed"])
	})

	t.Run("delete carries ids only", func(t *testing.T) {
		_, got := dispatch(mustChange("menu_items", domain.OperationDelete, item, nil))
		require.Len(t, got, 1)
		assert.Equal(t, events.Payload{"id": "m1", "restaurant_id": "r1", "timestamp": fixedTimestamp}, got[0].Payload)
	})
}

func TestRestaurants(t *testing.T) {
	before := domain.Record{"id": float64(7), "name": "Pho 24", "is_open": true}
	after := domain.Record{"id": float64(7), "name": "Pho 24", "is_open": false}

	_, got := dispatch(mustChange("restaurants", domain.OperationUpdate, before, after))
	require.Len(t, got, 1)
	assert.Equal(t, "restaurant:7", got[0].Group)
	assert.Equal(t, []string{"is_open"}, got[0].Payload["changed_fields"])

	_, got = dispatch(mustChange("restaurants", domain.OperationInsert, nil, after))
	assert.Empty(t, got)
	_, got = dispatch(mustChange("restaurants", domain.OperationDelete, before, nil))
	assert.Empty(t, got)
}

func TestInventoryItems(t *testing.T) {
	stock := func(qty any) domain.Record {
		return domain.Record{"id": "inv1", "restaurant_id": "r1", "name": "Rice noodles", "quantity": qty, "min_quantity": json.Number("10")}
	}

	t.Run("above threshold", func(t *testing.T) {
		_, got := dispatch(mustChange("inventory_items", domain.OperationUpdate, stock(json.Number("50")), stock(json.Number("40"))))
		require.Len(t, got, 1)
		assert.Equal(t, events.EventInventoryUpdated, got[0].Event)
		assert.Equal(t, "restaurant:r1", got[0].Group)
		assert.Equal(t, json.Number("50"), got[0].Payload["old_quantity"])
		assert.Equal(t, json.Number("40"), got[0].Payload["new_quantity"])
	})

	t.Run("at threshold raises alert", func(t *testing.T) {
		_, got := dispatch(mustChange("inventory_items", domain.OperationUpdate, stock(json.Number("12")), stock(json.Number("10"))))
		require.Len(t, got, 2)
		assert.Equal(t, events.EventInventoryUpdated, got[0].Event)
		assert.Equal(t, events.EventLowStockAlert, got[1].Event)
		assert.Equal(t, "restaurant:r1", got[1].Group)
		assert.Equal(t, "Rice noodles", got[1].Payload["name"])
	})

	t.Run("below threshold raises alert", func(t *testing.T) {
		_, got := dispatch(mustChange("inventory_items", domain.OperationUpdate, stock(3.0), stock(2.0)))
		require.Len(t, got, 2)
		assert.Equal(t, events.EventLowStockAlert, got[1].Event)
	})

	t.Run("quantity unchanged", func(t *testing.T) {
		before := stock(2.0)
		after := stock(2.0)
		after["name"] = "Dried rice noodles"
		_, got := dispatch(mustChange("inventory_items", domain.OperationUpdate, before, after))
		assert.Empty(t, got)
	})
}

func TestMessages(t *testing.T) {
	msg := domain.Record{"id": "msg1", "conversation_id": "c1", "body": "Table 4 needs water", "is_read": false}

	_, got := dispatch(mustChange("messages", domain.OperationInsert, nil, msg))
	require.Len(t, got, 1)
	assert.Equal(t, "conversation:c1", got[0].Group)
	assert.Equal(t, events.EventNewMessage, got[0].Event)

	read := domain.Record{"id": "msg1", "conversation_id": "c1", "body": "Table 4 needs water", "is_read": true}
	_, got = dispatch(mustChange("messages", domain.OperationUpdate, msg, read))
	require.Len(t, got, 1)
	assert.Equal(t, events.EventMessageRead, got[0].Event)
	assert.Equal(t, "msg1", got[0].Payload["message_id"])
	assert.Equal(t, true, got[0].Payload["is_read"])

	edited := domain.Record{"id": "msg1", "conversation_id": "c1", "body": "Table 4 needs ice", "is_read": false}
	_, got = dispatch(mustChange("messages", domain.OperationUpdate, msg, edited))
	assert.Empty(t, got)
}

func TestReservations(t *testing.T) {
	booked := domain.Record{"id": "res1", "restaurant_id": "r1", "customer_id": "u9", "status": "pending", "party_size": 4.0}

	_, got := dispatch(mustChange("reservations", domain.OperationInsert, nil, booked))
	require.Len(t, got, 2)
	assert.Equal(t, "restaurant:r1", got[0].Group)
	assert.Equal(t, events.EventNewReservation, got[0].Event)
	assert.Equal(t, "user:u9", got[1].Group)
	assert.Equal(t, events.EventReservationCreated, got[1].Event)

	confirmed := domain.Record{"id": "res1", "restaurant_id": "r1", "customer_id": "u9", "status": "confirmed", "party_size": 4.0}
	_, got = dispatch(mustChange("reservations", domain.OperationUpdate, booked, confirmed))
	require.Len(t, got, 2)
	for _, em := range got {
		assert.Equal(t, events.EventReservationStatusUpdated, em.Event)
		assert.Equal(t, "pending", em.Payload["old_status"])
		assert.Equal(t, "confirmed", em.Payload["new_status"])
	}

	bigger := domain.Record{"id": "res1", "restaurant_id": "r1", "customer_id": "u9", "status": "pending", "party_size": 6.0}
	_, got = dispatch(mustChange("reservations", domain.OperationUpdate, booked, bigger))
	assert.Empty(t, got)
}

func TestPayments(t *testing.T) {
	pending := domain.Record{"id": "p1", "order_id": "o1", "status": "pending", "provider": "momo"}
	paid := domain.Record{"id": "p1", "order_id": "o1", "status": "paid", "provider": "momo"}

	_, got := dispatch(mustChange("payments", domain.OperationUpdate, pending, paid))
	require.Len(t, got, 1)
	assert.Empty(t, got[0].Group)
	assert.Equal(t, events.EventPaymentStatusUpdated, got[0].Event)
	assert.Equal(t, "pending", got[0].Payload["old_status"])
	assert.Equal(t, "paid", got[0].Payload["new_status"])

	_, got = dispatch(mustChange("payments", domain.OperationInsert, nil, pending))
	assert.Empty(t, got)
}
