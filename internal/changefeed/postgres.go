package changefeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	realtime_errors "restaurant-realtime/pkg/errors"
	"restaurant-realtime/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	unlistenTimeout = 2 * time.Second
	// openTimeout bounds acquiring a pooled connection and issuing LISTEN.
	// An exhausted pool would otherwise park Open until the caller gives up.
	openTimeout = 10 * time.Second
)

type (
	// listenConn is a dedicated connection that can LISTEN and wait for
	// notifications.
	listenConn interface {
		Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
		WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
		Release()
	}

	connector interface {
		acquire(ctx context.Context) (listenConn, error)
	}

	poolConnector struct {
		pool *pgxpool.Pool
	}

	pooledConn struct {
		*pgxpool.Conn
	}
)

func (p poolConnector) acquire(ctx context.Context) (listenConn, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return pooledConn{Conn: conn}, nil
}

func (c pooledConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return c.Conn.Conn().WaitForNotification(ctx)
}

// PostgresSource opens change feeds backed by LISTEN/NOTIFY. Each feed holds
// its own pooled connection for as long as it is open.
type PostgresSource struct {
	db          connector
	logger      *logger.Logger
	openTimeout time.Duration
}

func NewPostgresSource(pool *pgxpool.Pool, l *logger.Logger) *PostgresSource {
	return &PostgresSource{db: poolConnector{pool: pool}, logger: l.Named("changefeed"), openTimeout: openTimeout}
}

// Open acquires a connection, issues LISTEN on the table's channel and starts
// relaying notifications. The returned feed runs until Close or until the
// connection fails; it never reconnects on its own.
func (s *PostgresSource) Open(ctx context.Context, schema, table string, relay Relay) (Feed, error) {
	timeout := s.openTimeout
	if timeout <= 0 {
		timeout = openTimeout
	}
	openCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := s.db.acquire(openCtx)
	if err != nil {
		return nil, fmt.Errorf("unable to acquire postgres connection: %w", err)
	}

	channel := pgx.Identifier{ChannelName(table)}.Sanitize()
	if _, err := conn.Exec(openCtx, "listen "+channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listening on %s: %w", channel, err)
	}

	feedCtx, cancel := context.WithCancel(context.Background())
	f := &pgFeed{
		schema:  schema,
		table:   table,
		channel: channel,
		conn:    conn,
		relay:   relay,
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  s.logger,
	}
	go f.run(feedCtx)

	s.logger.Infof("listening for %s.%s changes on %s", schema, table, channel)
	return f, nil
}

type pgFeed struct {
	schema  string
	table   string
	channel string
	conn    listenConn
	relay   Relay
	cancel  context.CancelFunc
	done    chan struct{}
	logger  *logger.Logger

	mu  sync.Mutex
	err error
}

func (f *pgFeed) run(ctx context.Context) {
	defer close(f.done)
	defer f.release()

	for {
		notification, err := f.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			f.setErr(fmt.Errorf("%w: %v", realtime_errors.ErrFeedClosed, err))
			f.logger.Errorf("change feed for %s stopped: %v", f.table, err)
			return
		}

		n, err := DecodeNotification([]byte(notification.Payload))
		if err != nil {
			f.logger.Warnf("dropping notification on %s: %v", f.channel, err)
			continue
		}
		if n.Schema != "" && n.Schema != f.schema {
			continue
		}
		if n.Table == "" {
			n.Table = f.table
		}
		f.relay(n)
	}
}

func (f *pgFeed) release() {
	ctx, cancel := context.WithTimeout(context.Background(), unlistenTimeout)
	defer cancel()
	// the connection may already be dead; unlisten is best effort.
	_, _ = f.conn.Exec(ctx, "unlisten "+f.channel)
	f.conn.Release()
}

func (f *pgFeed) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *pgFeed) Close() error {
	f.cancel()
	<-f.done
	return nil
}

func (f *pgFeed) Done() <-chan struct{} {
	return f.done
}

func (f *pgFeed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
