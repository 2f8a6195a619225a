package execution

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
	"github.com/ndrandal/bond-backoffice/internal/marketdata"
)

func tightBook() marketdata.OrderBook[catalog.Bond] {
	return marketdata.OrderBook[catalog.Bond]{
		Product: catalog.Bond{CUSIP: "91282CAX9"},
		Bids:    []marketdata.Order{{Price: decimal.RequireFromString("99.99609375"), Quantity: decimal.NewFromInt(3_000_000), Side: catalog.SideBid}},
		Offers:  []marketdata.Order{{Price: decimal.RequireFromString("100.0"), Quantity: decimal.NewFromInt(5_000_000), Side: catalog.SideOffer}},
	}
}

func wideBook() marketdata.OrderBook[catalog.Bond] {
	return marketdata.OrderBook[catalog.Bond]{
		Product: catalog.Bond{CUSIP: "91282CAX9"},
		Bids:    []marketdata.Order{{Price: decimal.RequireFromString("99.0"), Quantity: decimal.NewFromInt(3_000_000), Side: catalog.SideBid}},
		Offers:  []marketdata.Order{{Price: decimal.RequireFromString("100.0"), Quantity: decimal.NewFromInt(5_000_000), Side: catalog.SideOffer}},
	}
}

func TestAlgoExecutionSpreadGateDropsWideBooks(t *testing.T) {
	algo := NewAlgoExecutionService[catalog.Bond]()
	var emitted []ExecutionOrder[catalog.Bond]
	algo.AddListener(fabric.OnAdd(func(o ExecutionOrder[catalog.Bond]) { emitted = append(emitted, o) }))

	algo.OnBook(wideBook())
	if len(emitted) != 0 {
		t.Fatalf("expected wide-spread book to be dropped, got %d emissions", len(emitted))
	}
}

func TestAlgoExecutionCrossesTightBooks(t *testing.T) {
	algo := NewAlgoExecutionService[catalog.Bond]()
	var emitted []ExecutionOrder[catalog.Bond]
	algo.AddListener(fabric.OnAdd(func(o ExecutionOrder[catalog.Bond]) { emitted = append(emitted, o) }))

	algo.OnBook(tightBook())
	if len(emitted) != 1 {
		t.Fatalf("expected 1 emission for tight-spread book, got %d", len(emitted))
	}
	o := emitted[0]
	if o.Side != catalog.SideBid {
		t.Fatalf("first execution should be BID (c=1, odd), got %v", o.Side)
	}
	if !o.Price.Equal(decimal.RequireFromString("99.99609375")) {
		t.Fatalf("BID execution price should be best bid price, got %s", o.Price)
	}
	if !o.VisibleQuantity.Equal(decimal.NewFromInt(5_000_000)) {
		t.Fatalf("BID execution quantity should be best offer quantity, got %s", o.VisibleQuantity)
	}
	if o.OrderType != Market || o.IsChild {
		t.Fatalf("expected Market/non-child order, got %+v", o)
	}
}

func TestAlgoExecutionSideAlternates(t *testing.T) {
	algo := NewAlgoExecutionService[catalog.Bond]()
	var sides []catalog.Side
	algo.AddListener(fabric.OnAdd(func(o ExecutionOrder[catalog.Bond]) { sides = append(sides, o.Side) }))

	for i := 0; i < 4; i++ {
		algo.OnBook(tightBook())
	}

	want := []catalog.Side{catalog.SideBid, catalog.SideOffer, catalog.SideBid, catalog.SideOffer}
	if len(sides) != len(want) {
		t.Fatalf("expected %d emissions, got %d", len(want), len(sides))
	}
	for i, s := range want {
		if sides[i] != s {
			t.Fatalf("side[%d] = %v, want %v", i, sides[i], s)
		}
	}
}

func TestAlgoExecutionDropHookFiresOnWideSpread(t *testing.T) {
	var drops int
	algo := NewAlgoExecutionService[catalog.Bond](
		WithDropHook[catalog.Bond](func() { drops++ }),
	)

	algo.OnBook(wideBook())
	if drops != 1 {
		t.Fatalf("expected drop hook to fire once, got %d", drops)
	}

	algo.OnBook(tightBook())
	if drops != 1 {
		t.Fatalf("expected drop hook not to fire for a tradable book, got %d", drops)
	}
}

func TestExecutionServiceForwardsAndIgnoresMarketArg(t *testing.T) {
	svc := NewExecutionService[catalog.Bond]()
	var received []ExecutionOrder[catalog.Bond]
	svc.AddListener(fabric.OnAdd(func(o ExecutionOrder[catalog.Bond]) { received = append(received, o) }))

	order := ExecutionOrder[catalog.Bond]{Product: catalog.Bond{CUSIP: "91282CAX9"}, OrderID: "1"}
	svc.ExecuteOrder(order, "any market value")

	if len(received) != 1 || received[0].OrderID != "1" {
		t.Fatalf("expected order forwarded unchanged, got %+v", received)
	}
}
