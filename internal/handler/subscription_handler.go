package handler

import (
	"context"
	"net/http"

	"restaurant-realtime/internal/realtime"
	"restaurant-realtime/internal/transport/httpdto"
	realtime_errors "restaurant-realtime/pkg/errors"

	"github.com/gin-gonic/gin"
)

// SubscriptionManager is satisfied by *realtime.Manager.
type SubscriptionManager interface {
	Subscribe(ctx context.Context, table string) (*realtime.Subscription, error)
	Unsubscribe(table string)
	UnsubscribeAll()
	ListActive() []string
}

type SubscriptionHandler struct {
	manager SubscriptionManager
}

func NewSubscriptionHandler(manager SubscriptionManager) *SubscriptionHandler {
	return &SubscriptionHandler{manager: manager}
}

func (h *SubscriptionHandler) List(c *gin.Context) {
	tables := h.manager.ListActive()
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ListSubscriptionsResponse{
		Tables: tables,
		Count:  len(tables),
	}))
}

func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	// the feed outlives the request
	sub, err := h.manager.Subscribe(context.WithoutCancel(c.Request.Context()), c.Param("table"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(FromSubscription(sub)))
}

func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	table := c.Param("table")
	if !isActive(h.manager.ListActive(), table) {
		_ = c.Error(realtime_errors.ErrNotSubscribed)
		return
	}
	h.manager.Unsubscribe(table)
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"table": table}))
}

func (h *SubscriptionHandler) UnsubscribeAll(c *gin.Context) {
	tables := h.manager.ListActive()
	h.manager.UnsubscribeAll()
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.UnsubscribeAllResponse{Unsubscribed: tables}))
}

// FromSubscription converts a subscription handle for API responses
func FromSubscription(sub *realtime.Subscription) httpdto.SubscriptionDTO {
	dto := httpdto.SubscriptionDTO{
		Table:        sub.Table,
		Schema:       sub.Schema,
		SubscribedAt: realtime_errors.FormatISO(sub.SubscribedAt),
		Running:      true,
	}
	select {
	case <-sub.Done():
		dto.Running = false
		if err := sub.Err(); err != nil {
			dto.Error = err.Error()
		}
	default:
	}
	return dto
}

func isActive(tables []string, table string) bool {
	for _, t := range tables {
		if t == table {
			return true
		}
	}
	return false
}
