package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"restaurant-realtime/internal/changefeed"
	"restaurant-realtime/internal/domain"
	"restaurant-realtime/internal/events"
	"restaurant-realtime/pkg/logger"
)

var fixedTime = time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)

const fixedTimestamp = "2026-10-19T12:30:00.000Z"

type fakeFeed struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{done: make(chan struct{})}
}

func (f *fakeFeed) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

func (f *fakeFeed) fail(err error) {
	f.err = err
	f.once.Do(func() { close(f.done) })
}

func (f *fakeFeed) Done() <-chan struct{} { return f.done }
func (f *fakeFeed) Err() error            { return f.err }

type fakeSource struct {
	mu     sync.Mutex
	opens  map[string]int
	feeds  map[string]*fakeFeed
	relays map[string]changefeed.Relay
	failOn map[string]bool
	opened map[string][]*fakeFeed
	gates  map[string]chan struct{}
	waits  chan string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		opens:  make(map[string]int),
		feeds:  make(map[string]*fakeFeed),
		relays: make(map[string]changefeed.Relay),
		failOn: make(map[string]bool),
		opened: make(map[string][]*fakeFeed),
		gates:  make(map[string]chan struct{}),
		waits:  make(chan string, 16),
	}
}

// hold makes Open for table block until the returned channel is closed.
func (s *fakeSource) hold(table string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	s.gates[table] = gate
	return gate
}

func (s *fakeSource) Open(ctx context.Context, schema, table string, relay changefeed.Relay) (changefeed.Feed, error) {
	s.mu.Lock()
	gate := s.gates[table]
	s.mu.Unlock()
	if gate != nil {
		s.waits <- table
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[table] {
		return nil, errors.New("listen failed")
	}
	s.opens[table]++
	feed := newFakeFeed()
	s.feeds[table] = feed
	s.opened[table] = append(s.opened[table], feed)
	s.relays[table] = relay
	return feed, nil
}

func (s *fakeSource) openCount(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens[table]
}

func (s *fakeSource) allFeeds(table string) []*fakeFeed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeFeed(nil), s.opened[table]...)
}

func (s *fakeSource) feed(table string) *fakeFeed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feeds[table]
}

func (s *fakeSource) deliver(table string, n changefeed.Notification) {
	s.mu.Lock()
	relay := s.relays[table]
	s.mu.Unlock()
	relay(n)
}

func newTestDispatcher(rec *events.Recorder) *Dispatcher {
	d := NewDispatcher(rec, nil, logger.Nop())
	d.clock = func() time.Time { return fixedTime }
	return d
}

func mustChange(table string, op domain.Operation, before, after domain.Record) domain.ChangeEvent {
	ev, err := domain.NewChangeEvent(table, op, before, after)
	if err != nil {
		panic(err)
	}
	return ev
}

// dispatch runs change through a fresh dispatcher and returns the generic
// emission and whatever the table handler derived.
func dispatch(change domain.ChangeEvent) (events.Emission, []events.Emission) {
	rec := &events.Recorder{}
	newTestDispatcher(rec).Handle(context.Background(), change)
	all := rec.Emissions()
	return all[0], all[1:]
}
