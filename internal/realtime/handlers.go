package realtime

import (
	"sort"

	"restaurant-realtime/internal/domain"
	"restaurant-realtime/internal/events"
)

// Handler derives the directed and table-wide emissions for one change. It is a
// pure function of the change and performs no I/O.
type Handler func(op domain.Operation, before, after domain.Record) []events.Emission

// Handlers maps a table name to its handler.
type Handlers map[string]Handler

// DefaultHandlers returns the handler table for the restaurant schema.
func DefaultHandlers() Handlers {
	return Handlers{
		domain.TableUsers:          handleUsers,
		domain.TableOrders:         handleOrders,
		domain.TableMenuItems:      handleMenuItems,
		domain.TableRestaurants:    handleRestaurants,
		domain.TableInventoryItems: handleInventoryItems,
		domain.TableMessages:       handleMessages,
		domain.TableReservations:   handleReservations,
		domain.TablePayments:       handlePayments,
	}
}

// HandledTables lists the tables that have a handler, sorted.
func (h Handlers) HandledTables() []string {
	tables := make([]string, 0, len(h))
	for table := range h {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables
}

func to(group, event string, payload events.Payload) events.Emission {
	return events.Emission{Group: group, Event: event, Payload: payload}
}

func broadcast(event string, payload events.Payload) events.Emission {
	return events.Emission{Event: event, Payload: payload}
}

func handleUsers(op domain.Operation, before, after domain.Record) []events.Emission {
	switch op {
	case domain.OperationInsert:
		return []events.Emission{
			to(domain.UserGroup(after.Get("id")), events.EventProfileUpdated, events.Payload{"user": after}),
		}
	case domain.OperationUpdate:
		return []events.Emission{
			to(domain.UserGroup(after.Get("id")), events.EventProfileUpdated, events.Payload{"user": after}),
			broadcast(events.EventUserUpdated, events.Payload{"user": after}),
		}
	case domain.OperationDelete:
		return []events.Emission{
			broadcast(events.EventUserDeleted, events.Payload{"id": before.Get("id")}),
		}
	}
	return nil
}

func handleOrders(op domain.Operation, before, after domain.Record) []events.Emission {
	switch op {
	case domain.OperationInsert:
		return []events.Emission{
			to(domain.RestaurantGroup(after.Get("restaurant_id")), events.EventNewOrder, events.Payload{"order": after}),
			to(domain.UserGroup(after.Get("customer_id")), events.EventOrderCreated, events.Payload{"order": after}),
		}
	case domain.OperationUpdate:
		if !fieldChanged(before, after, "status") {
			return nil
		}
		payload := events.Payload{
			"order_id":   after.Get("id"),
			"old_status": before.Get("status"),
			"new_status": after.Get("status"),
			"order":      after,
		}
		return []events.Emission{
			to(domain.UserGroup(after.Get("customer_id")), events.EventOrderStatusUpdated, payload),
			to(domain.RestaurantGroup(after.Get("restaurant_id")), events.EventOrderStatusUpdated, payload),
		}
	}
	return nil
}

func handleMenuItems(op domain.Operation, before, after domain.Record) []events.Emission {
	switch op {
	case domain.OperationInsert:
		return []events.Emission{
			broadcast(events.EventMenuItemAdded, events.Payload{"item": after}),
		}
	case domain.OperationUpdate:
		return []events.Emission{
			broadcast(events.EventMenuItemUpdated, events.Payload{
				"item":                 after,
				"changed_fields":       ChangedFields(before, after),
				"availability_changed": fieldChanged(before, after, "is_available"),
				"price_changed":        fieldChanged(before, after, "price"),
				"old_price":            before.Get("price"),
				"new_price":            after.Get("price"),
			}),
		}
	case domain.OperationDelete:
		return []events.Emission{
			broadcast(events.EventMenuItemRemoved, events.Payload{
				"id":            before.Get("id"),
				"restaurant_id": before.Get("restaurant_id"),
			}),
		}
	}
	return nil
}

func handleRestaurants(op domain.Operation, before, after domain.Record) []events.Emission {
	if op != domain.OperationUpdate {
		return nil
	}
	return []events.Emission{
		to(domain.RestaurantGroup(after.Get("id")), events.EventRestaurantUpdated, events.Payload{
			"restaurant":     after,
			"changed_fields": ChangedFields(before, after),
		}),
	}
}

func handleInventoryItems(op domain.Operation, before, after domain.Record) []events.Emission {
	if op != domain.OperationUpdate || !fieldChanged(before, after, "quantity") {
		return nil
	}
	group := domain.RestaurantGroup(after.Get("restaurant_id"))
	out := []events.Emission{
		to(group, events.EventInventoryUpdated, events.Payload{
			"item_id":      after.Get("id"),
			"old_quantity": before.Get("quantity"),
			"new_quantity": after.Get("quantity"),
			"item":         after,
		}),
	}

	quantity, okQty := toFloat(after.Get("quantity"))
	minimum, okMin := toFloat(after.Get("min_quantity"))
	if okQty && okMin && quantity <= minimum {
		out = append(out, to(group, events.EventLowStockAlert, events.Payload{
			"item_id":      after.Get("id"),
			"name":         after.Get("name"),
			"quantity":     after.Get("quantity"),
			"min_quantity": after.Get("min_quantity"),
		}))
	}
	return out
}

func handleMessages(op domain.Operation, before, after domain.Record) []events.Emission {
	switch op {
	case domain.OperationInsert:
		return []events.Emission{
			to(domain.ConversationGroup(after.Get("conversation_id")), events.EventNewMessage, events.Payload{"message": after}),
		}
	case domain.OperationUpdate:
		if !fieldChanged(before, after, "is_read") {
			return nil
		}
		return []events.Emission{
			to(domain.ConversationGroup(after.Get("conversation_id")), events.EventMessageRead, events.Payload{
				"message_id": after.Get("id"),
				"is_read":    after.Get("is_read"),
			}),
		}
	}
	return nil
}

func handleReservations(op domain.Operation, before, after domain.Record) []events.Emission {
	switch op {
	case domain.OperationInsert:
		return []events.Emission{
			to(domain.RestaurantGroup(after.Get("restaurant_id")), events.EventNewReservation, events.Payload{"reservation": after}),
			to(domain.UserGroup(after.Get("customer_id")), events.EventReservationCreated, events.Payload{"reservation": after}),
		}
	case domain.OperationUpdate:
		if !fieldChanged(before, after, "status") {
			return nil
		}
		payload := events.Payload{
			"reservation_id": after.Get("id"),
			"old_status":     before.Get("status"),
			"new_status":     after.Get("status"),
		}
		return []events.Emission{
			to(domain.RestaurantGroup(after.Get("restaurant_id")), events.EventReservationStatusUpdated, payload),
			to(domain.UserGroup(after.Get("customer_id")), events.EventReservationStatusUpdated, payload),
		}
	}
	return nil
}

// handlePayments broadcasts status changes to everyone. Unlike the other
// tables there is no group targeting.
// TODO: address payment updates to the order's customer and restaurant groups
// once payment rows carry restaurant_id.
func handlePayments(op domain.Operation, before, after domain.Record) []events.Emission {
	if op != domain.OperationUpdate || !fieldChanged(before, after, "status") {
		return nil
	}
	return []events.Emission{
		broadcast(events.EventPaymentStatusUpdated, events.Payload{
			"payment_id": after.Get("id"),
			"order_id":   after.Get("order_id"),
			"old_status": before.Get("status"),
			"new_status": after.Get("status"),
		}),
	}
}
