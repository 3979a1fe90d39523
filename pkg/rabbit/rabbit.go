package rabbit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mark48Evo/gps-influxdb/internal/domain/types"
	"github.com/Mark48Evo/gps-influxdb/pkg/logger"
	wrap "github.com/Mark48Evo/gps-influxdb/pkg/logger/wrapper"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	heartbeat         = 10 * time.Second
	reconnectAttempts = 5
)

var ErrClosed = errors.New("rabbitmq client closed")

type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool // set by Close, never reset
	mu      sync.Mutex
	dsn     string

	log logger.Logger
}

// New dials the broker and opens one channel
func New(ctx context.Context, dsn string, log logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		dsn: dsn,
		log: log,
	}

	conn, ch, err := r.dial()
	if err != nil {
		return nil, err
	}
	r.attach(conn, ch)

	log.Info(wrap.WithAction(ctx, types.ActionRabbitMQConnected), "connected to rabbitMQ")

	return r, nil
}

func (r *RabbitMQ) dial() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(r.dsn, amqp.Config{
		Heartbeat: heartbeat,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() // Close connection if channel creation fails
		return nil, nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	return conn, ch, nil
}

// attach stores conn/ch and starts watching both for closure. Handles it
// replaces are closed so a reconnect never leaves the old connection open.
// Callers must not hold r.mu.
func (r *RabbitMQ) attach(conn *amqp.Connection, ch *amqp.Channel) {
	connClose := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClose := ch.NotifyClose(make(chan *amqp.Error, 1))

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = ch.Close()
		_ = conn.Close()
		return
	}
	oldConn, oldCh := r.conn, r.channel
	r.conn = conn
	r.channel = ch
	r.mu.Unlock()

	if oldCh != nil {
		release(oldCh, ch)
	}
	if oldConn != nil {
		release(oldConn, conn)
	}

	go r.monitor(connClose, chClose)
}

// handle is the part of amqp.Connection and amqp.Channel used on swap.
type handle interface {
	IsClosed() bool
	Close() error
}

// release closes old when it has been replaced by next and is still open.
func release(old, next handle) bool {
	if old == next || old.IsClosed() {
		return false
	}
	_ = old.Close()
	return true
}

// monitor logs the first close notification of the current connection
func (r *RabbitMQ) monitor(connClose, chClose <-chan *amqp.Error) {
	ctx := wrap.WithAction(context.Background(), types.ActionRabbitConnectionClosed)

	var closeErr *amqp.Error
	select {
	case closeErr = <-connClose:
	case closeErr = <-chClose:
	}

	if closeErr != nil {
		r.log.Error(ctx, "RabbitMQ connection closed with error", closeErr)
	} else {
		r.log.Debug(ctx, "RabbitMQ connection closed gracefully")
	}
}

// Channel returns the current AMQP channel. It may be replaced by Reconnect.
func (r *RabbitMQ) Channel() *amqp.Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channel
}

// IsConnectionClosed checks if the connection is closed
func (r *RabbitMQ) IsConnectionClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.conn == nil || r.channel == nil {
		return true
	}
	return r.conn.IsClosed() || r.channel.IsClosed()
}

// Close closes rabbit channel and connection, giving up when ctx is done
func (r *RabbitMQ) Close(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, types.ActionRabbitConnectionClosing)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	ch, conn := r.channel, r.conn
	r.channel, r.conn = nil, nil
	r.mu.Unlock()

	r.log.Debug(ctx, "closing channel")

	if ch != nil {
		if err := closeWithCtxFunc(ctx, ch.Close); err != nil && !errors.Is(err, amqp.ErrClosed) {
			if ctx.Err() != nil {
				r.log.Debug(ctx, "context cancelled while closing channel")
			} else {
				r.log.Error(ctx, "error closing channel", err)
			}
		}
	}

	r.log.Debug(ctx, "closing RabbitMQ connection")

	if conn != nil {
		if err := closeWithCtxFunc(ctx, conn.Close); err != nil && !errors.Is(err, amqp.ErrClosed) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}

	r.log.Info(wrap.WithAction(ctx, types.ActionRabbitConnectionClosed), "rabbitMQ closed")

	return nil
}

// helper to close a resource with context cancellation safely
func closeWithCtxFunc(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		// goroutine can still write into the buffered channel and exit.
		return ctx.Err()
	}
}

// Reconnect dials a fresh connection with linear backoff
func (r *RabbitMQ) Reconnect(ctx context.Context) error {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	var (
		conn *amqp.Connection
		ch   *amqp.Channel
		err  error
	)
	for i := range reconnectAttempts {
		conn, ch, err = r.dial()
		if err == nil {
			break
		}

		wait := time.Duration(i+1) * 2 * time.Second
		r.log.Debug(ctx, fmt.Sprintf("reconnect attempt %d failed, retrying in %v", i+1, wait))

		select {
		case <-ctx.Done():
			r.log.Debug(ctx, "graceful shutdown, stopping reconnect attempts")
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	if err != nil {
		return fmt.Errorf("failed to reconnect to RabbitMQ: %w", err)
	}

	r.attach(conn, ch)
	r.log.Info(wrap.WithAction(ctx, types.ActionRabbitReconnected), "RabbitMQ reconnected successfully")

	return nil
}

type recovery int

const (
	recoveryNone recovery = iota
	recoveryChannel
	recoveryDial
)

// recoveryFor picks the cheapest way back to a usable channel. A channel
// closed by a channel-level error (e.g. 406 on declare) is reopened on the
// live connection instead of dialing a new one.
func recoveryFor(connAlive, chAlive bool) recovery {
	switch {
	case connAlive && chAlive:
		return recoveryNone
	case connAlive:
		return recoveryChannel
	default:
		return recoveryDial
	}
}

// EnsureConnection reopens the channel or reconnects when either is gone
func (r *RabbitMQ) EnsureConnection(ctx context.Context) error {
	r.mu.Lock()
	closed, conn, ch := r.closed, r.conn, r.channel
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	connAlive := conn != nil && !conn.IsClosed()
	chAlive := ch != nil && !ch.IsClosed()

	switch recoveryFor(connAlive, chAlive) {
	case recoveryNone:
		return nil

	case recoveryChannel:
		newCh, err := conn.Channel()
		if err == nil {
			r.attach(conn, newCh)
			r.log.Info(wrap.WithAction(ctx, types.ActionRabbitReconnected), "RabbitMQ channel reopened")
			return nil
		}
		r.log.Warn(ctx, "failed to reopen channel, reconnecting...", "error", err.Error())
		return r.Reconnect(ctx)

	default:
		r.log.Warn(ctx, "rabbit connection closed, reconnecting...")
		return r.Reconnect(ctx)
	}
}
