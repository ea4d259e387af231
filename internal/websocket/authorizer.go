package websocket

import (
	"slices"

	"restaurant-realtime/internal/auth"
	"restaurant-realtime/internal/domain"
)

// GroupAuthorizer decides which delivery groups a client may join
type GroupAuthorizer struct{}

func NewGroupAuthorizer() *GroupAuthorizer {
	return &GroupAuthorizer{}
}

// CanJoin checks if the token holder may receive a group's events. Admins may
// join any well-formed group.
func (a *GroupAuthorizer) CanJoin(claims auth.AccessClaims, group string) bool {
	kind, id, ok := domain.ParseGroup(group)
	if !ok {
		return false
	}
	if claims.IsAdmin() {
		return true
	}

	switch kind {
	case domain.GroupKindUser:
		// User's own group - always allowed
		return id == claims.UserID
	case domain.GroupKindRestaurant:
		return slices.Contains(claims.RestaurantIDs, id)
	case domain.GroupKindConversation:
		return slices.Contains(claims.ConversationIDs, id)
	}

	// Default deny
	return false
}

// DefaultGroups are joined automatically when a client connects.
func (a *GroupAuthorizer) DefaultGroups(claims auth.AccessClaims) []string {
	groups := []string{domain.UserGroup(claims.UserID)}
	for _, id := range claims.RestaurantIDs {
		groups = append(groups, domain.RestaurantGroup(id))
	}
	return groups
}
