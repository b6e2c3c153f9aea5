// Package app contains application services and port definitions for the
// options order-book aggregator context.
package app

import (
	"context"

	"github.com/spencerjibz/optionbook/business/options/domain"
)

// Level is a single (price, quantity) tuple decoded from a venue frame,
// before it is turned into a domain.Order.
type Level struct {
	Price float32
	Qty   int32
}

// Snapshot is the unified, venue-agnostic decode of one level-2 depth
// frame: every exchange's wire schema collapses to this shape.
type Snapshot struct {
	Instrument domain.Instrument
	Asks       []Level
	Bids       []Level
}

// MessageSource yields frames from a venue's transport until it
// terminates or the context is cancelled. Frames carry no text/binary
// distinction: a binary frame the transport delivers is passed on like a
// text frame, and no TransportError is raised for it. A TransportError is
// raised only when the source terminates with an error.
type MessageSource interface {
	// Messages returns the channel frames arrive on. It is closed when
	// the source terminates; Err then reports why.
	Messages() <-chan []byte
	// Err returns the terminal error, if any, after the channel closes.
	Err() error
}

// SubscriptionWriter accepts one UTF-8 text payload: the serialized
// subscription template for a venue.
type SubscriptionWriter interface {
	Write(ctx context.Context, payload []byte) error
}

// Clock supplies millisecond timestamps for Order.ID construction. It is
// injected so the domain and app layers never sample the wall clock
// directly, keeping matching deterministic under test.
type Clock interface {
	NowMillis() uint64
}

// VenueAdapter normalizes one exchange's wire schema into the unified
// Snapshot shape and produces that exchange's subscription template. Each
// venue (Deribit-style, Okex-style) gets its own infra implementation.
type VenueAdapter interface {
	// Name is the exchange tag used as OrderBook.ExchangeName.
	Name() string
	// Dialect selects the instrument-string grammar this venue speaks.
	Dialect() domain.Dialect
	// Endpoint is the venue's streaming websocket URL.
	Endpoint() string
	// SubscriptionFor serializes the subscription template for symbol.
	SubscriptionFor(symbol string) ([]byte, error)
	// Decode turns one raw frame into a Snapshot. A heartbeat/empty frame
	// returns (nil, nil).
	Decode(frame []byte) (*Snapshot, error)
}
