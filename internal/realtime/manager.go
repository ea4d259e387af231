package realtime

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"restaurant-realtime/internal/changefeed"
	"restaurant-realtime/internal/domain"
	"restaurant-realtime/internal/metrics"
	realtime_errors "restaurant-realtime/pkg/errors"
	"restaurant-realtime/pkg/logger"
)

// ChangeHandler receives every notification relayed from a subscription.
type ChangeHandler interface {
	HandleRaw(ctx context.Context, n changefeed.Notification)
}

// Subscription is the handle for one table's change feed.
type Subscription struct {
	Table        string
	Schema       string
	SubscribedAt time.Time

	feed changefeed.Feed
}

// Done is closed once the underlying feed has stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.feed.Done()
}

// Err reports why the feed stopped, if it failed.
func (s *Subscription) Err() error {
	return s.feed.Err()
}

func (s *Subscription) stopped() bool {
	select {
	case <-s.feed.Done():
		return true
	default:
		return false
	}
}

// Manager keeps at most one live change feed per table. It is constructed on
// startup and closed on shutdown.
type Manager struct {
	source  changefeed.Source
	handler ChangeHandler
	schema  string
	logger  *logger.Logger

	relayCtx    context.Context
	cancelRelay context.CancelFunc

	mu   sync.Mutex
	subs map[string]*Subscription
}

func NewManager(source changefeed.Source, handler ChangeHandler, schema string, l *logger.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		source:      source,
		handler:     handler,
		schema:      schema,
		logger:      l.Named("subscriptions"),
		relayCtx:    ctx,
		cancelRelay: cancel,
		subs:        make(map[string]*Subscription),
	}
}

// Subscribe opens a change feed for table. Subscribing to a table that already
// has a live feed returns the existing handle. A feed that has stopped is
// replaced. The registry is not locked while the feed is being opened.
func (m *Manager) Subscribe(ctx context.Context, table string) (*Subscription, error) {
	if !domain.IsTracked(table) {
		return nil, fmt.Errorf("%w: %s", realtime_errors.ErrUnknownTable, table)
	}

	if sub, ok := m.live(table); ok {
		m.logger.Infof("already subscribed to %s", table)
		return sub, nil
	}

	feed, err := m.source.Open(ctx, m.schema, table, func(n changefeed.Notification) {
		m.handler.HandleRaw(m.relayCtx, n)
	})
	if err != nil {
		m.logger.Errorf("subscribing to %s: %v", table, err)
		return nil, fmt.Errorf("subscribing to %s: %w", table, err)
	}

	m.mu.Lock()
	if existing, ok := m.subs[table]; ok && !existing.stopped() {
		// a concurrent Subscribe won the race
		m.mu.Unlock()
		if err := feed.Close(); err != nil {
			m.logger.Errorf("closing duplicate feed for %s: %v", table, err)
		}
		return existing, nil
	}
	sub := &Subscription{
		Table:        table,
		Schema:       m.schema,
		SubscribedAt: time.Now(),
		feed:         feed,
	}
	m.subs[table] = sub
	metrics.ActiveSubscriptions.Set(float64(len(m.subs)))
	m.mu.Unlock()

	go m.watch(sub)

	m.logger.Infof("subscribed to %s.%s", m.schema, table)
	return sub, nil
}

// live returns the table's subscription if its feed is still running. A
// stopped subscription is dropped from the registry.
func (m *Manager) live(table string) (*Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subs[table]
	if !ok {
		return nil, false
	}
	if !sub.stopped() {
		return sub, true
	}
	m.logger.Warnf("replacing stopped subscription for %s", table)
	delete(m.subs, table)
	metrics.ActiveSubscriptions.Set(float64(len(m.subs)))
	return nil, false
}

// SubscribeAll subscribes every tracked table. Failures are logged and do not
// stop the remaining tables; the number of failed tables is returned.
func (m *Manager) SubscribeAll(ctx context.Context) int {
	failed := 0
	for _, table := range domain.TrackedTables {
		if _, err := m.Subscribe(ctx, table); err != nil {
			failed++
		}
	}
	return failed
}

// Unsubscribe closes the feed for table. It is a no-op if table is not subscribed.
func (m *Manager) Unsubscribe(table string) {
	m.mu.Lock()
	sub, ok := m.subs[table]
	if ok {
		delete(m.subs, table)
		metrics.ActiveSubscriptions.Set(float64(len(m.subs)))
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	if err := sub.feed.Close(); err != nil {
		m.logger.Errorf("closing subscription for %s: %v", table, err)
	}
	m.logger.Infof("unsubscribed from %s", table)
}

// UnsubscribeAll tears down every tracked subscription.
func (m *Manager) UnsubscribeAll() {
	m.mu.Lock()
	subs := m.subs
	m.subs = make(map[string]*Subscription)
	metrics.ActiveSubscriptions.Set(0)
	m.mu.Unlock()

	for table, sub := range subs {
		if err := sub.feed.Close(); err != nil {
			m.logger.Errorf("closing subscription for %s: %v", table, err)
		}
	}
	m.logger.Infof("unsubscribed from %d tables", len(subs))
}

// ListActive returns the subscribed table names, sorted. Diagnostics only.
func (m *Manager) ListActive() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	tables := make([]string, 0, len(m.subs))
	for table := range m.subs {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables
}

// Close tears down all subscriptions and stops relaying.
func (m *Manager) Close() {
	m.UnsubscribeAll()
	m.cancelRelay()
}

// watch logs a feed that stops without being closed. Nothing is retried; the
// table stays silent until it is subscribed again.
func (m *Manager) watch(sub *Subscription) {
	<-sub.Done()
	if err := sub.Err(); err != nil {
		m.logger.Errorf("subscription for %s dropped, events are lost until resubscribed: %v", sub.Table, err)
	}
}
