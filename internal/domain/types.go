package domain

type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

type GroupKind string

const (
	GroupKindRestaurant   GroupKind = "restaurant"
	GroupKindUser         GroupKind = "user"
	GroupKindConversation GroupKind = "conversation"
)

// Tracked table names
const (
	TableUsers          = "users"
	TableRestaurants    = "restaurants"
	TableMenuItems      = "menu_items"
	TableMenuCategories = "menu_categories"
	TableOrders         = "orders"
	TableOrderItems     = "order_items"
	TableTables         = "tables"
	TableReservations   = "reservations"
	TableInventoryItems = "inventory_items"
	TableMessages       = "messages"
	TableConversations  = "conversations"
	TablePayments       = "payments"
)

// TrackedTables is the fixed set of tables the broadcaster subscribes to on startup.
var TrackedTables = []string{
	TableUsers,
	TableRestaurants,
	TableMenuItems,
	TableMenuCategories,
	TableOrders,
	TableOrderItems,
	TableTables,
	TableReservations,
	TableInventoryItems,
	TableMessages,
	TableConversations,
	TablePayments,
}

// IsTracked reports whether table is one of TrackedTables
func IsTracked(table string) bool {
	for _, t := range TrackedTables {
		if t == table {
			return true
		}
	}
	return false
}
