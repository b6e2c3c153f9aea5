package domain

import (
	"fmt"
	"sync"
)

// OrderBook is the single mutex-guarded order book for one exchange. It
// owns one PriceColumns per registered Instrument. Callers that need to
// touch two books at once (cross-venue matching) must always lock both
// books in a fixed global order (by ExchangeName), never receiver before
// peer, to avoid AB/BA deadlock; MatchOrders enforces this internally.
type OrderBook struct {
	mu           sync.Mutex
	ExchangeName string
	table        map[Instrument]*PriceColumns
}

// NewOrderBook constructs an empty book for the named exchange.
func NewOrderBook(exchangeName string) *OrderBook {
	return &OrderBook{
		ExchangeName: exchangeName,
		table:        make(map[Instrument]*PriceColumns),
	}
}

// AddAsset registers an instrument with the book. Idempotent: a second
// call for an already-known instrument is a no-op.
func (b *OrderBook) AddAsset(i Instrument) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addAssetLocked(i)
}

func (b *OrderBook) addAssetLocked(i Instrument) *PriceColumns {
	if pc, ok := b.table[i]; ok {
		return pc
	}
	pc := newPriceColumns(b.ExchangeName)
	b.table[i] = pc
	return pc
}

// AddOrder enqueues a new active order and aggregates it into the
// appropriate side's price ladder. The instrument need not have been
// registered beforehand; it is created on first use.
func (b *OrderBook) AddOrder(i Instrument, o Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	pc := b.addAssetLocked(i)

	mo := MinimalOrder{ID: o.ID, Qty: o.Quantity, Price: o.Price}
	if err := pc.insertOrder(o.Request, mo); err != nil {
		return fmt.Errorf("add order: %w", err)
	}

	o.RemainingQty = o.Quantity
	if o.Status == 0 {
		o.Status = Pending
	}
	pc.Orders = append(pc.Orders, o)
	pc.updateDerived()
	return nil
}

// Columns returns the ladder for instrument, if registered. The
// returned pointer is live and must only be mutated while holding the
// book's mutex (use WithLock or the matching engine's own locking).
func (b *OrderBook) Columns(i Instrument) (*PriceColumns, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pc, ok := b.table[i]
	return pc, ok
}

// Instruments returns every instrument currently registered.
func (b *OrderBook) Instruments() []Instrument {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Instrument, 0, len(b.table))
	for i := range b.table {
		out = append(out, i)
	}
	return out
}

// WithLock runs fn with the book's mutex held, giving callers a safe
// window to read or mutate PriceColumns returned by Columns.
func (b *OrderBook) WithLock(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
}
