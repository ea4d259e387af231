package httpdto

import (
	"context"

	"restaurant-realtime/pkg/logger"
)

// Response is the envelope every JSON endpoint answers with. Failed requests
// carry the id they were logged under so a client report can be matched to the
// server log line.
type Response[T any] struct {
	Success   bool   `json:"success"`
	Data      T      `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data}
}

// NewErrorResponse builds a failure envelope. code is the upper-case token
// clients switch on, e.g. UNKNOWN_TABLE or RATE_LIMITED.
func NewErrorResponse(message, code string) Response[any] {
	return Response[any]{Error: message, Code: code}
}

// ErrorFromContext is NewErrorResponse tagged with the request id stored in ctx
// by the request id middleware. Without one the field is omitted.
func ErrorFromContext(ctx context.Context, message, code string) Response[any] {
	resp := NewErrorResponse(message, code)
	resp.RequestID, _ = ctx.Value(logger.RequestIdKey).(string)
	return resp
}
