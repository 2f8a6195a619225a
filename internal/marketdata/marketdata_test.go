package marketdata

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
)

func book(bid, offer string) OrderBook[catalog.Bond] {
	return OrderBook[catalog.Bond]{
		Product: catalog.Bond{CUSIP: "91282CAX9"},
		Bids:    []Order{{Price: decimal.RequireFromString(bid), Quantity: decimal.NewFromInt(1_000_000), Side: catalog.SideBid}},
		Offers:  []Order{{Price: decimal.RequireFromString(offer), Quantity: decimal.NewFromInt(2_000_000), Side: catalog.SideOffer}},
	}
}

func TestMarketDataOverwritesCache(t *testing.T) {
	svc := NewService[catalog.Bond]()
	svc.OnMessage(book("99.9", "100.1"))

	bid, offer, err := svc.GetBestBidOffer("91282CAX9")
	if err != nil {
		t.Fatalf("GetBestBidOffer: %v", err)
	}
	if !bid.Price.Equal(decimal.RequireFromString("99.9")) {
		t.Fatalf("bid price = %s", bid.Price)
	}
	if !offer.Price.Equal(decimal.RequireFromString("100.1")) {
		t.Fatalf("offer price = %s", offer.Price)
	}

	svc.OnMessage(book("99.95", "100.05"))
	bid, offer, err = svc.GetBestBidOffer("91282CAX9")
	if err != nil {
		t.Fatalf("GetBestBidOffer: %v", err)
	}
	if !bid.Price.Equal(decimal.RequireFromString("99.95")) {
		t.Fatalf("expected overwritten bid price, got %s", bid.Price)
	}
	if !offer.Price.Equal(decimal.RequireFromString("100.05")) {
		t.Fatalf("expected overwritten offer price, got %s", offer.Price)
	}
}

func TestMarketDataUnknownProductErrors(t *testing.T) {
	svc := NewService[catalog.Bond]()
	if _, _, err := svc.GetBestBidOffer("unknown"); err == nil {
		t.Fatal("expected error for unknown product")
	}
}

func TestOrderBookSpread(t *testing.T) {
	b := book("99.9", "100.1")
	spread, err := b.Spread()
	if err != nil {
		t.Fatalf("Spread: %v", err)
	}
	if !spread.Equal(decimal.RequireFromString("0.2")) {
		t.Fatalf("spread = %s, want 0.2", spread)
	}
}

func TestOrderBookEmptySideErrors(t *testing.T) {
	b := OrderBook[catalog.Bond]{Product: catalog.Bond{CUSIP: "91282CAX9"}}
	if _, err := b.Spread(); err == nil {
		t.Fatal("expected error for empty book")
	}
	if _, ok := b.BestBid(); ok {
		t.Fatal("expected BestBid to report false on empty book")
	}
}

func TestMarketDataNotifiesListeners(t *testing.T) {
	svc := NewService[catalog.Bond]()
	var received []OrderBook[catalog.Bond]
	svc.AddListener(fabric.OnAdd(func(b OrderBook[catalog.Bond]) { received = append(received, b) }))

	svc.OnMessage(book("99.9", "100.1"))
	if len(received) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(received))
	}
}
