package realtime

import (
	"context"
	"fmt"
	"time"

	"restaurant-realtime/internal/changefeed"
	"restaurant-realtime/internal/domain"
	"restaurant-realtime/internal/events"
	"restaurant-realtime/internal/metrics"
	realtime_errors "restaurant-realtime/pkg/errors"
	"restaurant-realtime/pkg/logger"
)

// Dispatcher turns change events into emissions: a generic {table}_{operation}
// broadcast for every change, followed by whatever the table's handler derives.
type Dispatcher struct {
	emitter  events.Emitter
	handlers Handlers
	logger   *logger.Logger
	clock    func() time.Time
}

func NewDispatcher(emitter events.Emitter, handlers Handlers, l *logger.Logger) *Dispatcher {
	if handlers == nil {
		handlers = DefaultHandlers()
	}
	return &Dispatcher{
		emitter:  emitter,
		handlers: handlers,
		logger:   l.Named("dispatcher"),
		clock:    time.Now,
	}
}

// HandleRaw decodes a change-feed notification and dispatches it. Malformed
// notifications are logged and dropped.
func (d *Dispatcher) HandleRaw(ctx context.Context, n changefeed.Notification) {
	change, err := n.ChangeEvent()
	if err != nil {
		metrics.DispatchErrorsTotal.WithLabelValues("decode").Inc()
		d.logger.Warnf("dropping %s notification for %q: %v", n.EventType, n.Table, err)
		return
	}
	if n.Truncated {
		d.logger.Warnf("%s notification for %q exceeded the NOTIFY limit, relaying id columns only", n.EventType, n.Table)
	}
	d.Handle(ctx, change)
}

// Handle dispatches one change. It never returns an error: delivery is
// fire-and-forget and failures are logged.
func (d *Dispatcher) Handle(ctx context.Context, change domain.ChangeEvent) {
	metrics.ChangesTotal.WithLabelValues(change.Table, string(change.Operation)).Inc()
	ts := realtime_errors.FormatISO(d.clock())

	generic := events.Payload{
		"table":               change.Table,
		"operation":           string(change.Operation),
		"record":              change.Record(),
		events.TimestampField: ts,
	}
	if change.Operation == domain.OperationUpdate {
		generic["old_record"] = change.Before
	}
	d.emit(ctx, change, events.Emission{
		Event:   events.GenericEvent(change.Table, string(change.Operation)),
		Payload: generic,
	})

	handler, ok := d.handlers[change.Table]
	if !ok {
		metrics.DispatchErrorsTotal.WithLabelValues("unhandled").Inc()
		d.logger.Debugf("no handler for table %s, dropping %s", change.Table, change.Operation)
		return
	}

	emissions, err := runHandler(handler, change)
	if err != nil {
		metrics.DispatchErrorsTotal.WithLabelValues("panic").Inc()
		d.logger.Errorf("handler for %s %s failed: %v", change.Table, change.Operation, err)
		return
	}
	for _, em := range emissions {
		if em.Payload == nil {
			em.Payload = events.Payload{}
		}
		if _, ok := em.Payload[events.TimestampField]; !ok {
			em.Payload[events.TimestampField] = ts
		}
		d.emit(ctx, change, em)
	}
}

// HandledTables lists the tables this dispatcher has handlers for.
func (d *Dispatcher) HandledTables() []string {
	return d.handlers.HandledTables()
}

func (d *Dispatcher) emit(ctx context.Context, change domain.ChangeEvent, em events.Emission) {
	mode := "group"
	if em.Group == "" {
		mode = "broadcast"
	}
	metrics.EmissionsTotal.WithLabelValues(mode).Inc()

	if err := events.Emit(ctx, d.emitter, em); err != nil {
		metrics.DispatchErrorsTotal.WithLabelValues("emit").Inc()
		d.logger.Errorf("emitting %s for %s %s: %v", em.Event, change.Table, change.Operation, err)
	}
}

// runHandler isolates a handler panic to the single change being processed.
func runHandler(h Handler, change domain.ChangeEvent) (emissions []events.Emission, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(change.Operation, change.Before, change.After), nil
}
