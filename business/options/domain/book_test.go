package domain

import "testing"

func testInstrument() Instrument {
	return Instrument{Asset: "BTC", StrikePrice: 56000, InstrumentType: Call}
}

func TestAddAsset_Idempotent(t *testing.T) {
	b := NewOrderBook("test")
	i := testInstrument()

	b.AddAsset(i)
	b.AddAsset(i)

	if len(b.Instruments()) != 1 {
		t.Fatalf("expected exactly one registered instrument, got %d", len(b.Instruments()))
	}
}

func TestAddOrder_RegistersInstrumentAndEnqueues(t *testing.T) {
	b := NewOrderBook("test")
	i := testInstrument()

	o := NewOrder(1, 0.72, 30, Ask)
	if err := b.AddOrder(i, o); err != nil {
		t.Fatalf("add order: %v", err)
	}

	pc, ok := b.Columns(i)
	if !ok {
		t.Fatal("expected instrument auto-registered")
	}
	if len(pc.Orders) != 1 {
		t.Fatalf("active queue length = %d, want 1", len(pc.Orders))
	}
	if pc.Orders[0].RemainingQty != 30 {
		t.Fatalf("remaining qty = %d, want 30", pc.Orders[0].RemainingQty)
	}

	h, ok := pc.Asks.Get(0.72)
	if !ok || h.TotalQuantity != 30 {
		t.Fatalf("expected ask level at 0.72 with qty 30, got %+v", h)
	}
}
