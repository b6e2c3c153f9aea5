// Package deribit implements the Dialect A venue adapter: Deribit's
// public/subscribe JSON-RPC schema and its "BTC-27APR24-56000-C" hyphenated
// instrument grammar (spec.md §6, Venue A).
package deribit

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/spencerjibz/optionbook/business/options/app"
	"github.com/spencerjibz/optionbook/business/options/domain"
)

const (
	// Endpoint is Deribit's production streaming websocket URL.
	Endpoint = "wss://www.deribit.com/ws/api/v2"

	venueName      = "deribit"
	depthChannelFn = "book.%s.none.20.100ms"
)

// subscribeParams is the JSON-RPC params block of a public/subscribe call.
type subscribeParams struct {
	Channels []string `json:"channels"`
	JSONRPC  string   `json:"jsonrpc"`
	ID       int      `json:"id"`
}

// subscribeRequest is the full outbound subscription template.
type subscribeRequest struct {
	Method string          `json:"method"`
	Params subscribeParams `json:"params"`
}

// bookData is the inner depth payload of a book channel notification.
type bookData struct {
	Bids           [][2]float64 `json:"bids"`
	Asks           [][2]float64 `json:"asks"`
	InstrumentName string       `json:"instrument_name"`
}

// depthFrame is Deribit's notification envelope. A missing Params, or a
// Params without data, is a heartbeat.
type depthFrame struct {
	Params *struct {
		Data *bookData `json:"data"`
	} `json:"params"`
}

// Adapter implements app.VenueAdapter for Deribit's wire schema. Its
// subscription template is mutable state (the channel name is rewritten
// per call to set_asset), so SubscriptionFor holds the adapter's own
// mutex across exactly this mutation and the subsequent marshal; callers
// need no lock of their own.
type Adapter struct {
	mu       sync.Mutex
	template subscribeRequest
}

// New constructs a Deribit adapter with an empty subscription template.
func New() *Adapter {
	return &Adapter{
		template: subscribeRequest{
			Method: "public/subscribe",
			Params: subscribeParams{JSONRPC: "2.0", ID: 0},
		},
	}
}

func (a *Adapter) Name() string           { return venueName }
func (a *Adapter) Dialect() domain.Dialect { return domain.DialectDeribit }
func (a *Adapter) Endpoint() string        { return Endpoint }

// setAsset mutates the subscription template's channel list for symbol.
func (a *Adapter) setAsset(symbol string) {
	a.template.Params.Channels = []string{fmt.Sprintf(depthChannelFn, symbol)}
}

// SubscriptionFor mutates the template to target symbol and serializes it.
func (a *Adapter) SubscriptionFor(symbol string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setAsset(symbol)
	return json.Marshal(a.template)
}

// Decode parses one Deribit depth notification into a Snapshot. A frame
// with no params object, or with params carrying no data, decodes as
// (nil, nil), signaling a heartbeat the ingestion loop should ignore
// without counting it as a parse error.
func (a *Adapter) Decode(frame []byte) (*app.Snapshot, error) {
	var f depthFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		return nil, fmt.Errorf("deribit: decode frame: %w", err)
	}
	if f.Params == nil || f.Params.Data == nil {
		return nil, nil
	}

	instrument, err := domain.ParseInstrument(f.Params.Data.InstrumentName, domain.DialectDeribit)
	if err != nil {
		return nil, fmt.Errorf("deribit: parse instrument: %w", err)
	}

	asks, err := toLevels(f.Params.Data.Asks)
	if err != nil {
		return nil, fmt.Errorf("deribit: decode asks: %w", err)
	}
	bids, err := toLevels(f.Params.Data.Bids)
	if err != nil {
		return nil, fmt.Errorf("deribit: decode bids: %w", err)
	}

	return &app.Snapshot{Instrument: instrument, Asks: asks, Bids: bids}, nil
}

// toLevels converts Deribit's [price, qty] numeric tuples into Levels. A
// malformed entry aborts the whole frame, per spec.md §7's all-or-nothing
// snapshot rule.
func toLevels(tuples [][2]float64) ([]app.Level, error) {
	out := make([]app.Level, 0, len(tuples))
	for _, t := range tuples {
		out = append(out, app.Level{Price: float32(t[0]), Qty: int32(t[1])})
	}
	return out, nil
}
