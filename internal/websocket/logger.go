package websocket

import (
	"go.uber.org/zap"
)

// socketLogger provides structured logging for websocket events
type socketLogger struct {
	logger *zap.Logger
}

func newSocketLogger(l *zap.Logger) *socketLogger {
	if l == nil {
		l = zap.L()
	}
	return &socketLogger{
		logger: l.With(zap.String("component", "websocket")),
	}
}

func (l *socketLogger) Info(event string, c *Client, fields ...zap.Field) {
	l.logger.Info("websocket_event", l.fields(event, c, fields)...)
}

func (l *socketLogger) Warn(event string, c *Client, fields ...zap.Field) {
	l.logger.Warn("websocket_warning", l.fields(event, c, fields)...)
}

func (l *socketLogger) Error(event string, c *Client, err error, fields ...zap.Field) {
	l.logger.Error("websocket_error", append(l.fields(event, c, fields), zap.Error(err))...)
}

func (l *socketLogger) fields(event string, c *Client, extra []zap.Field) []zap.Field {
	fields := []zap.Field{zap.String("event", event)}
	if c != nil {
		fields = append(fields,
			zap.String("user_id", c.UserID),
			zap.String("client_id", c.ID),
		)
	}
	return append(fields, extra...)
}
