package domain

import "testing"

func TestInsertOrder_AggregatesLevel(t *testing.T) {
	pc := newPriceColumns("test")

	if err := pc.insertOrder(Ask, MinimalOrder{ID: 1, Qty: 10, Price: 0.5}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := pc.insertOrder(Ask, MinimalOrder{ID: 2, Qty: 5, Price: 0.5}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	h, ok := pc.Asks.Get(0.5)
	if !ok {
		t.Fatal("expected level at 0.5")
	}
	if h.TotalQuantity != 15 {
		t.Fatalf("total quantity = %d, want 15", h.TotalQuantity)
	}
	if len(h.Orders) != 2 {
		t.Fatalf("contributor count = %d, want 2", len(h.Orders))
	}
}

func TestInsertOrder_RejectsNaN(t *testing.T) {
	pc := newPriceColumns("test")
	nan := float32(0)
	nan = nan / nan
	if err := pc.insertOrder(Bid, MinimalOrder{ID: 1, Qty: 1, Price: nan}); err == nil {
		t.Fatal("expected error inserting NaN price")
	}
}

func TestUpdateDerived_SpreadAndMidprice(t *testing.T) {
	pc := newPriceColumns("test")
	pc.insertOrder(Bid, MinimalOrder{ID: 1, Qty: 10, Price: 100.0})
	pc.insertOrder(Ask, MinimalOrder{ID: 2, Qty: 10, Price: 100.5})
	pc.updateDerived()

	if pc.Spread != 0.5 {
		t.Fatalf("spread = %v, want 0.5", pc.Spread)
	}
	if pc.MidPrice != 100.25 {
		t.Fatalf("midprice = %v, want 100.25", pc.MidPrice)
	}
}

func TestUpdateDerived_LeavesPriorValuesWhenOneSideEmpty(t *testing.T) {
	pc := newPriceColumns("test")
	pc.insertOrder(Bid, MinimalOrder{ID: 1, Qty: 10, Price: 100.0})
	pc.updateDerived()
	if pc.Spread != 0 || pc.MidPrice != 0 {
		t.Fatalf("expected untouched derived values, got spread=%v mid=%v", pc.Spread, pc.MidPrice)
	}
}

func TestPriceRow_SortedKeys(t *testing.T) {
	row := newPriceRow()
	row.Set(0.73, &CurrentHoldingPerPrice{})
	row.Set(0.72, &CurrentHoldingPerPrice{})
	row.Set(0.90, &CurrentHoldingPerPrice{})

	asc := row.SortedKeysAsc()
	want := []float32{0.72, 0.73, 0.90}
	for i := range want {
		if asc[i] != want[i] {
			t.Fatalf("asc[%d] = %v, want %v", i, asc[i], want[i])
		}
	}

	desc := row.SortedKeysDesc()
	if desc[0] != 0.90 || desc[len(desc)-1] != 0.72 {
		t.Fatalf("unexpected desc order: %v", desc)
	}
}

func TestPriceRow_SweepEmpty(t *testing.T) {
	row := newPriceRow()
	row.Set(0.5, &CurrentHoldingPerPrice{TotalQuantity: 0})
	row.Set(0.6, &CurrentHoldingPerPrice{TotalQuantity: 3})
	row.sweepEmpty()

	if row.Len() != 1 {
		t.Fatalf("len = %d, want 1", row.Len())
	}
	if _, ok := row.Get(0.6); !ok {
		t.Fatal("non-empty level should survive sweep")
	}
}

func TestExtend_MergesKeyByKeyLastWriteWins(t *testing.T) {
	a := newPriceColumns("a")
	a.insertOrder(Bid, MinimalOrder{ID: 1, Qty: 10, Price: 1.0})

	b := newPriceColumns("b")
	b.insertOrder(Bid, MinimalOrder{ID: 2, Qty: 99, Price: 1.0})
	b.insertOrder(Ask, MinimalOrder{ID: 3, Qty: 5, Price: 2.0})

	a.Extend(b)

	h, ok := a.Bids.Get(1.0)
	if !ok || h.TotalQuantity != 99 {
		t.Fatalf("expected overlapping key replaced with b's holding, got %+v", h)
	}
	if _, ok := a.Asks.Get(2.0); !ok {
		t.Fatal("expected b's ask level merged in")
	}
}
