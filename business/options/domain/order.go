package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// TradeRequest is the side of an order.
type TradeRequest int

const (
	Ask TradeRequest = iota
	Bid
)

func (t TradeRequest) String() string {
	if t == Bid {
		return "Bid"
	}
	return "Ask"
}

// OrderStatus tracks an active order's lifecycle.
type OrderStatus int

const (
	Pending OrderStatus = iota
	Partial
	Completed
)

func (s OrderStatus) String() string {
	switch s {
	case Partial:
		return "Partial"
	case Completed:
		return "Completed"
	default:
		return "Pending"
	}
}

// MinimalOrder is the resting-liquidity record kept inside a price level:
// just enough to drain it during matching and to prune it from an active
// order queue afterward.
type MinimalOrder struct {
	ID    uint64 // wall-clock milliseconds at creation; uniqueness not guaranteed
	Qty   int32
	Price float32
}

// MatchedOrder records a single fill consumed from a counterparty price
// level. ExchangeTag is the taker's own exchange name in the single-book
// path and the liquidity-providing venue's name in the cross-book path.
type MatchedOrder struct {
	Price       float32
	Quantity    int32
	ExchangeTag string
}

// Order is the active taker order tracked by an OrderBook.
type Order struct {
	ID           uint64
	Status       OrderStatus
	Price        float32
	Request      TradeRequest
	Quantity     int32
	RemainingQty int32
	IsArbitrage  bool
	FilledWith   []MatchedOrder
}

// NewOrder constructs an active order. id is supplied by the caller (the
// ingestion loop's injected Clock) rather than sampled internally, so the
// domain stays free of hidden wall-clock reads.
func NewOrder(id uint64, price float32, qty int32, request TradeRequest) Order {
	return Order{
		ID:       id,
		Price:    price,
		Quantity: qty,
		Request:  request,
		Status:   Pending,
	}
}

// CurrentHoldingPerPrice is the aggregated contents of one occupied price
// level on one side of a ladder.
type CurrentHoldingPerPrice struct {
	TotalQuantity int32
	TotalAmount   float32 // notional, rounded to 3 decimals on update
	Orders        []MinimalOrder
}

func (h *CurrentHoldingPerPrice) recompute() {
	var qty int32
	for _, o := range h.Orders {
		qty += o.Qty
	}
	h.TotalQuantity = qty
	if len(h.Orders) > 0 {
		h.TotalAmount = round(float32(qty)*h.Orders[0].Price, 3)
	} else {
		h.TotalAmount = 0
	}
}

// round rounds a notional/spread/mid-price value to decimals places using
// shopspring/decimal (the teacher's own money-math library, e.g.
// business/pricing/domain/spread.go) rather than a hand-rolled
// multiply-round-divide over float64, which is prone to representation
// error right at the boundary a decimal library exists to avoid. The
// ladder's price keys themselves stay plain float32 (see isNaN32 below);
// only these derived decimal-rounded figures go through decimal.Decimal.
func round(x float32, decimals int32) float32 {
	d := decimal.NewFromFloat32(x).Round(decimals)
	f, _ := d.Float64()
	return float32(f)
}

func isNaN32(f float32) bool {
	return math.IsNaN(float64(f))
}
