package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// undefinedID is what a missing id renders as inside a group key.
const undefinedID = "undefined"

// Group returns the delivery group key "<kind>:<id>".
func Group(kind GroupKind, id any) string {
	return string(kind) + ":" + FormatID(id)
}

func RestaurantGroup(id any) string   { return Group(GroupKindRestaurant, id) }
func UserGroup(id any) string         { return Group(GroupKindUser, id) }
func ConversationGroup(id any) string { return Group(GroupKindConversation, id) }

// ParseGroup splits a group key into kind and id.
func ParseGroup(group string) (GroupKind, string, bool) {
	kind, id, ok := strings.Cut(group, ":")
	if !ok || id == "" {
		return "", "", false
	}
	switch GroupKind(kind) {
	case GroupKindRestaurant, GroupKindUser, GroupKindConversation:
		return GroupKind(kind), id, true
	}
	return "", "", false
}

// FormatID renders a record id for use in a group key. Integral floats are
// printed without a fractional part.
func FormatID(id any) string {
	switch v := id.(type) {
	case nil:
		return undefinedID
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}
