// Package transport adapts the shared reconnecting websocket client to the
// options context's MessageSource/SubscriptionWriter ports, so the
// ingestion loop never imports coder/websocket or wsconn directly.
package transport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/spencerjibz/optionbook/internal/wsconn"
)

// WSClient wraps a *wsconn.Client as both an app.MessageSource and an
// app.SubscriptionWriter for one venue's streaming connection. Frames are
// forwarded onto an owned channel that is closed once the connection
// gives up permanently, so Ingestion.Run's "channel closed" exit path
// actually fires instead of blocking forever on wsconn's own channel
// (which wsconn never closes while it keeps retrying).
type WSClient struct {
	conn     *wsconn.Client
	out      chan []byte
	stop     chan struct{}
	terminal atomic.Pointer[error]
	once     sync.Once
}

// NewWSClient builds a WSClient over the given wsconn configuration.
// Connect/ConnectWithRetry must be called before Messages() yields data.
func NewWSClient(cfg wsconn.Config) (*WSClient, error) {
	conn, err := wsconn.New(cfg)
	if err != nil {
		return nil, err
	}
	w := &WSClient{conn: conn, out: make(chan []byte, cfg.BufferSize), stop: make(chan struct{})}

	// MaxReconnects > 0 means the underlying client gives up permanently
	// once exhausted; record that as this venue's terminal TransportError
	// and stop forwarding so Ingestion.Run's closed-channel exit fires.
	conn.OnStateChange(func(state wsconn.State, err error) {
		if state == wsconn.StateDisconnected && err != nil {
			stored := err
			w.terminal.Store(&stored)
			w.once.Do(func() { close(w.stop) })
		}
	})

	go w.forward()

	return w, nil
}

func (w *WSClient) forward() {
	defer close(w.out)
	for {
		select {
		case <-w.stop:
			return
		case msg := <-w.conn.Messages():
			select {
			case w.out <- msg:
			case <-w.stop:
				return
			}
		}
	}
}

// Connect dials the venue with exponential-backoff retry.
func (w *WSClient) Connect(ctx context.Context) error {
	return w.conn.ConnectWithRetry(ctx)
}

// Messages implements app.MessageSource.
func (w *WSClient) Messages() <-chan []byte {
	return w.out
}

// Err implements app.MessageSource; it is non-nil only once the
// connection has permanently given up (MaxReconnects exhausted).
func (w *WSClient) Err() error {
	if p := w.terminal.Load(); p != nil {
		return *p
	}
	return nil
}

// Write implements app.SubscriptionWriter.
func (w *WSClient) Write(ctx context.Context, payload []byte) error {
	if !w.conn.IsConnected() {
		return errors.New("transport: not connected")
	}
	return w.conn.Send(ctx, payload)
}

// Close releases the underlying connection and stops forwarding frames.
func (w *WSClient) Close() error {
	w.once.Do(func() { close(w.stop) })
	return w.conn.Close()
}
