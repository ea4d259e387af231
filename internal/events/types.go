package events

// Derived event names, grouped by table.

// User events
const (
	EventProfileUpdated = "profile_updated"
	EventUserUpdated    = "user_updated"
	EventUserDeleted    = "user_deleted"
)

// Order events
const (
	EventNewOrder           = "new_order"
	EventOrderCreated       = "order_created"
	EventOrderStatusUpdated = "order_status_updated"
)

// Menu events
const (
	EventMenuItemAdded   = "menu_item_added"
	EventMenuItemUpdated = "menu_item_updated"
	EventMenuItemRemoved = "menu_item_removed"
)

// Restaurant events
const (
	EventRestaurantUpdated = "restaurant_updated"
)

// Inventory events
const (
	EventInventoryUpdated = "inventory_updated"
	EventLowStockAlert    = "low_stock_alert"
)

// Message events
const (
	EventNewMessage  = "new_message"
	EventMessageRead = "message_read"
)

// Reservation events
const (
	EventNewReservation           = "new_reservation"
	EventReservationCreated       = "reservation_created"
	EventReservationStatusUpdated = "reservation_status_updated"
)

// Payment events
const (
	EventPaymentStatusUpdated = "payment_status_updated"
)

// TimestampField is stamped on every payload before it leaves the dispatcher.
const TimestampField = "timestamp"

// Redis channel prefixes
const (
	ChannelPrefixGroup = "realtime:group:"
	ChannelBroadcast   = "realtime:broadcast"
	ChannelPattern     = "realtime:*"
)

// GenericEvent names the table-wide event emitted for every change, e.g. orders_insert.
func GenericEvent(table, operation string) string {
	return table + "_" + operation
}
