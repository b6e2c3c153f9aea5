package domain

import "fmt"

// MatchKind classifies the outcome recorded for one local order during a
// matching pass.
type MatchKind int

const (
	MatchCompleted MatchKind = iota
	MatchPartial
)

func (k MatchKind) String() string {
	if k == MatchPartial {
		return "partial"
	}
	return "completed"
}

// MatchEvent is a loggable summary of one local order's outcome during a
// MatchOrders pass. The domain stays free of a logger dependency; the
// app layer turns these into structured log lines and metrics.
type MatchEvent struct {
	Order Order
	Kind  MatchKind
}

// MatchOrders runs the matching pass for instrument against the chosen
// liquidity ladder: external's ladder when external is non-nil, the
// receiver's own opposite-side ladder otherwise (self-matching). It
// walks the receiver's active order queue in insertion order, draining
// levels from the liquidity ladder and recording fills.
//
// Lock discipline: which book is the receiver and which is "external" is
// irrelevant to lock order — both books' mutexes are always acquired in
// a fixed global order (lexicographic on ExchangeName), never
// receiver-then-external. This is what actually prevents AB/BA deadlock
// when venue "deribit" calls deribit.MatchOrders(i, okexBook) at the same
// time venue "okex" calls okex.MatchOrders(i, deribitBook): both calls
// lock the two books in the same order regardless of which is the
// receiver.
func (b *OrderBook) MatchOrders(instrument Instrument, external *OrderBook) ([]MatchEvent, error) {
	if external != nil && external != b {
		first, second := b, external
		if external.ExchangeName < b.ExchangeName {
			first, second = external, b
		}
		first.mu.Lock()
		defer first.mu.Unlock()
		second.mu.Lock()
		defer second.mu.Unlock()
	} else {
		b.mu.Lock()
		defer b.mu.Unlock()
	}

	pc, ok := b.table[instrument]
	if !ok {
		return nil, fmt.Errorf("match orders: instrument not registered on %s book", b.ExchangeName)
	}

	liquidity := pc
	if external != nil && external != b {
		epc, ok := external.table[instrument]
		if !ok {
			return nil, fmt.Errorf("match orders: instrument not registered on %s book", external.ExchangeName)
		}
		liquidity = epc
	}

	var events []MatchEvent
	var toRemove []uint64

	for idx := range pc.Orders {
		o := &pc.Orders[idx]
		if o.Status == Completed {
			continue
		}

		remaining := o.RemainingQty
		if remaining <= 0 {
			remaining = o.Quantity
		}
		price := o.Price

		var row *PriceRow
		var keys []float32
		if o.Request == Ask {
			row = liquidity.Bids
			keys = row.SortedKeysDesc()
		} else {
			row = liquidity.Asks
			keys = row.SortedKeysAsc()
		}

		for _, key := range keys {
			if remaining <= 0 {
				break
			}
			if o.Request == Ask && key < price {
				break
			}
			if o.Request == Bid && key > price {
				break
			}

			holding, ok := row.Get(key)
			if !ok {
				continue
			}

			done, ids := matchAtPriceLevel(holding, remaining)
			if done <= 0 {
				continue
			}
			remaining -= done
			toRemove = append(toRemove, ids...)
			o.FilledWith = append(o.FilledWith, MatchedOrder{
				Price:       key,
				Quantity:    done,
				ExchangeTag: liquidity.ExchangeName,
			})
		}

		var acc int32
		for _, f := range o.FilledWith {
			acc += f.Quantity
		}

		o.IsArbitrage = false
		for _, f := range o.FilledWith {
			if f.ExchangeTag != b.ExchangeName {
				o.IsArbitrage = true
				break
			}
		}

		switch {
		case remaining == 0 && acc == o.Quantity && len(o.FilledWith) > 0:
			o.Status = Completed
			o.RemainingQty = 0
			events = append(events, MatchEvent{Order: *o, Kind: MatchCompleted})
		case remaining < o.Quantity:
			o.Status = Partial
			o.RemainingQty = o.Quantity - acc
			events = append(events, MatchEvent{Order: *o, Kind: MatchPartial})
		}
	}

	removeSet := make(map[uint64]struct{}, len(toRemove))
	for _, id := range toRemove {
		removeSet[id] = struct{}{}
	}

	active := pc.Orders[:0]
	for _, o := range pc.Orders {
		if o.Status == Completed {
			pc.History = append(pc.History, o)
			continue
		}
		if _, drop := removeSet[o.ID]; drop {
			continue
		}
		if o.Quantity == 0 {
			continue
		}
		active = append(active, o)
	}
	pc.Orders = active

	pc.updateDerived()
	pc.Bids.sweepEmpty()
	pc.Asks.sweepEmpty()
	if liquidity != pc {
		liquidity.updateDerived()
		liquidity.Bids.sweepEmpty()
		liquidity.Asks.sweepEmpty()
	}

	return events, nil
}

// matchAtPriceLevel drains up to remaining units from holding's
// contributor orders, earliest inserted first, returning the quantity
// drained and the ids of contributors fully consumed.
func matchAtPriceLevel(holding *CurrentHoldingPerPrice, remaining int32) (done int32, toRemove []uint64) {
	newOrders := make([]MinimalOrder, 0, len(holding.Orders))
	for idx := 0; idx < len(holding.Orders); idx++ {
		c := holding.Orders[idx]
		if remaining <= 0 {
			newOrders = append(newOrders, holding.Orders[idx:]...)
			break
		}
		if c.Qty <= remaining {
			remaining -= c.Qty
			done += c.Qty
			toRemove = append(toRemove, c.ID)
			continue
		}
		c.Qty -= remaining
		done += remaining
		remaining = 0
		newOrders = append(newOrders, c)
		newOrders = append(newOrders, holding.Orders[idx+1:]...)
		break
	}
	holding.Orders = newOrders
	holding.recompute()
	return done, toRemove
}
