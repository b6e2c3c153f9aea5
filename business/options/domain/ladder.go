package domain

import (
	"fmt"
	"sort"
)

// PriceRow is a price-sorted level aggregation on one side of a ladder.
// Keys are float32 prices; NaN is rejected before it ever reaches Set.
type PriceRow struct {
	levels map[float32]*CurrentHoldingPerPrice
}

func newPriceRow() *PriceRow {
	return &PriceRow{levels: make(map[float32]*CurrentHoldingPerPrice)}
}

// Get returns the holding at price, if any.
func (r *PriceRow) Get(price float32) (*CurrentHoldingPerPrice, bool) {
	h, ok := r.levels[price]
	return h, ok
}

// Set replaces the holding at price.
func (r *PriceRow) Set(price float32, h *CurrentHoldingPerPrice) {
	r.levels[price] = h
}

// Delete removes the level at price.
func (r *PriceRow) Delete(price float32) {
	delete(r.levels, price)
}

// Len reports the number of occupied levels.
func (r *PriceRow) Len() int {
	return len(r.levels)
}

// SortedKeysAsc returns occupied prices lowest to highest.
func (r *PriceRow) SortedKeysAsc() []float32 {
	keys := make([]float32, 0, len(r.levels))
	for k := range r.levels {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// SortedKeysDesc returns occupied prices highest to lowest.
func (r *PriceRow) SortedKeysDesc() []float32 {
	keys := r.SortedKeysAsc()
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys
}

// Min returns the lowest occupied price.
func (r *PriceRow) Min() (float32, bool) {
	keys := r.SortedKeysAsc()
	if len(keys) == 0 {
		return 0, false
	}
	return keys[0], true
}

// Max returns the highest occupied price.
func (r *PriceRow) Max() (float32, bool) {
	keys := r.SortedKeysAsc()
	if len(keys) == 0 {
		return 0, false
	}
	return keys[len(keys)-1], true
}

// sweepEmpty drops every level whose holding has drained to zero
// quantity, per the matching engine's post-pass housekeeping.
func (r *PriceRow) sweepEmpty() {
	for k, h := range r.levels {
		if h.TotalQuantity == 0 {
			delete(r.levels, k)
		}
	}
}

// PriceColumns is the per-instrument, per-exchange ladder: both sides,
// their derived spread/mid-price, the active order queue and the
// completed-trade history.
type PriceColumns struct {
	Bids         *PriceRow
	Asks         *PriceRow
	Spread       float32
	MidPrice     float32
	Orders       []Order // active queue, insertion order preserved
	History      []Order
	ExchangeName string
}

func newPriceColumns(exchangeName string) *PriceColumns {
	return &PriceColumns{
		Bids:         newPriceRow(),
		Asks:         newPriceRow(),
		ExchangeName: exchangeName,
	}
}

func (pc *PriceColumns) rowFor(side TradeRequest) *PriceRow {
	if side == Ask {
		return pc.Asks
	}
	return pc.Bids
}

// insertOrder aggregates a new resting order into the level at its
// price, creating the level if this is the first order to occupy it.
func (pc *PriceColumns) insertOrder(side TradeRequest, o MinimalOrder) error {
	if isNaN32(o.Price) {
		return fmt.Errorf("insert order: NaN price is not a valid ladder key")
	}
	row := pc.rowFor(side)
	h, ok := row.Get(o.Price)
	if !ok {
		h = &CurrentHoldingPerPrice{
			TotalQuantity: o.Qty,
			TotalAmount:   round(float32(o.Qty)*o.Price, 3),
			Orders:        []MinimalOrder{o},
		}
		row.Set(o.Price, h)
		return nil
	}
	h.Orders = append(h.Orders, o)
	h.TotalQuantity += o.Qty
	h.TotalAmount = round(h.TotalAmount+float32(o.Qty)*o.Price, 3)
	return nil
}

// updateDerived recomputes spread and mid-price iff both sides have at
// least one occupied level; otherwise the prior values are left intact.
func (pc *PriceColumns) updateDerived() {
	maxBid, okBid := pc.Bids.Max()
	minAsk, okAsk := pc.Asks.Min()
	if !okBid || !okAsk {
		return
	}
	pc.Spread = round(minAsk-maxBid, 5)
	pc.MidPrice = round((minAsk+maxBid)/2, 5)
}

// Extend merges another ladder's bids and asks into this one key by
// key, last write wins on overlapping prices. This is the single-book
// matching fallback utility from the source design; the primary
// cross-book matching path (OrderBook.MatchOrders) selects a liquidity
// ladder directly instead of merging, so this is only exercised when a
// caller explicitly wants a combined view of two ladders.
func (pc *PriceColumns) Extend(other *PriceColumns) {
	for k, v := range other.Bids.levels {
		clone := *v
		clone.Orders = append([]MinimalOrder(nil), v.Orders...)
		pc.Bids.Set(k, &clone)
	}
	for k, v := range other.Asks.levels {
		clone := *v
		clone.Orders = append([]MinimalOrder(nil), v.Orders...)
		pc.Asks.Set(k, &clone)
	}
	pc.updateDerived()
}
