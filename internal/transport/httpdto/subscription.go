package httpdto

// SubscriptionDTO describes one table's change feed
type SubscriptionDTO struct {
	Table        string `json:"table"`
	Schema       string `json:"schema"`
	SubscribedAt string `json:"subscribed_at"`
	Running      bool   `json:"running"`
	Error        string `json:"error,omitempty"`
}

// ListSubscriptionsResponse is returned by GET /v1/realtime/subscriptions
type ListSubscriptionsResponse struct {
	Tables []string `json:"tables"`
	Count  int      `json:"count"`
}

// UnsubscribeAllResponse is returned by DELETE /v1/realtime/subscriptions
type UnsubscribeAllResponse struct {
	Unsubscribed []string `json:"unsubscribed"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status        string   `json:"status"`
	Subscriptions []string `json:"subscriptions"`
	Clients       int      `json:"clients"`
}
