// Package okx implements the Dialect B venue adapter: OKX's books-channel
// subscribe schema and its "BTC-USD-240427-56000-C" hyphenated instrument
// grammar, with numeric levels carried as strings (spec.md §6, Venue B).
package okx

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/spencerjibz/optionbook/business/options/app"
	"github.com/spencerjibz/optionbook/business/options/domain"
)

const (
	// Endpoint is OKX's production public streaming websocket URL.
	Endpoint = "wss://ws.okx.com:8443/ws/v5/public"

	venueName = "okex"
	channel   = "books"
)

// subscribeArg names one channel/instrument pair in a subscribe request.
type subscribeArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

// subscribeRequest is the full outbound subscription template.
type subscribeRequest struct {
	Op   string         `json:"op"`
	Args []subscribeArg `json:"args"`
}

// bookData is one element of OKX's "data" array: level-2 depth carried as
// numeric strings, each entry a variadic tuple whose first two fields are
// price and quantity.
type bookData struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

// depthFrame is OKX's notification envelope.
type depthFrame struct {
	Arg *struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Data []bookData `json:"data"`
}

// Adapter implements app.VenueAdapter for OKX's wire schema.
type Adapter struct {
	mu       sync.Mutex
	template subscribeRequest
}

// New constructs an OKX adapter with an empty subscription template.
func New() *Adapter {
	return &Adapter{template: subscribeRequest{Op: "subscribe"}}
}

func (a *Adapter) Name() string           { return venueName }
func (a *Adapter) Dialect() domain.Dialect { return domain.DialectOkex }
func (a *Adapter) Endpoint() string        { return Endpoint }

func (a *Adapter) setAsset(symbol string) {
	a.template.Args = []subscribeArg{{Channel: channel, InstID: symbol}}
}

// SubscriptionFor mutates the template to target symbol and serializes it.
func (a *Adapter) SubscriptionFor(symbol string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setAsset(symbol)
	return json.Marshal(a.template)
}

// Decode parses one OKX books notification into a Snapshot. A frame
// carrying no "data" array (e.g. a subscribe ack) decodes as (nil, nil).
func (a *Adapter) Decode(frame []byte) (*app.Snapshot, error) {
	var f depthFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		return nil, fmt.Errorf("okx: decode frame: %w", err)
	}
	if len(f.Data) == 0 || f.Arg == nil {
		return nil, nil
	}

	instrument, err := domain.ParseInstrument(f.Arg.InstID, domain.DialectOkex)
	if err != nil {
		return nil, fmt.Errorf("okx: parse instrument: %w", err)
	}

	d := f.Data[0]
	asks, err := toLevels(d.Asks)
	if err != nil {
		return nil, fmt.Errorf("okx: decode asks: %w", err)
	}
	bids, err := toLevels(d.Bids)
	if err != nil {
		return nil, fmt.Errorf("okx: decode bids: %w", err)
	}

	return &app.Snapshot{Instrument: instrument, Asks: asks, Bids: bids}, nil
}

// toLevels converts OKX's [priceStr, qtyStr, ...] tuples into Levels. A
// malformed entry aborts the whole frame, per spec.md §7's all-or-nothing
// snapshot rule.
func toLevels(rows [][]string) ([]app.Level, error) {
	out := make([]app.Level, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("level row has fewer than 2 fields: %v", row)
		}
		price, err := strconv.ParseFloat(row[0], 32)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", row[0], err)
		}
		qty, err := strconv.ParseFloat(row[1], 32)
		if err != nil {
			return nil, fmt.Errorf("parse qty %q: %w", row[1], err)
		}
		out = append(out, app.Level{Price: float32(price), Qty: int32(qty)})
	}
	return out, nil
}
