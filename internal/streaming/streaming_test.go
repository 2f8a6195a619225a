package streaming

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
	"github.com/ndrandal/bond-backoffice/internal/pricing"
)

func TestAlgoStreamingAlternatesVisibleSize(t *testing.T) {
	algo := NewAlgoStreamingService[catalog.Bond]()
	bond := catalog.Bond{CUSIP: "91282CAX9"}

	// mid=100, spread=2/128=0.015625.
	p := pricing.Price[catalog.Bond]{
		Product:        bond,
		Mid:            decimal.NewFromInt(100),
		BidOfferSpread: decimal.NewFromFloat(0.015625),
	}

	algo.OnPrice(p)
	first, err := algo.GetData(bond.CUSIP)
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if !first.Bid.Visible.Equal(decimal.NewFromInt(2_000_000)) {
		t.Fatalf("first tick visible expected 2,000,000, got %s", first.Bid.Visible)
	}
	if !first.Bid.Hidden.Equal(decimal.NewFromInt(4_000_000)) {
		t.Fatalf("first tick hidden expected 4,000,000, got %s", first.Bid.Hidden)
	}
	wantBid := decimal.NewFromFloat(99.9921875)
	wantOffer := decimal.NewFromFloat(100.0078125)
	if !first.Bid.Price.Equal(wantBid) {
		t.Fatalf("bid price: expected %s, got %s", wantBid, first.Bid.Price)
	}
	if !first.Offer.Price.Equal(wantOffer) {
		t.Fatalf("offer price: expected %s, got %s", wantOffer, first.Offer.Price)
	}

	algo.OnPrice(p)
	second, err := algo.GetData(bond.CUSIP)
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if !second.Bid.Visible.Equal(decimal.NewFromInt(1_000_000)) {
		t.Fatalf("second tick visible expected 1,000,000, got %s", second.Bid.Visible)
	}
	if !second.Bid.Hidden.Equal(decimal.NewFromInt(2_000_000)) {
		t.Fatalf("second tick hidden expected 2,000,000, got %s", second.Bid.Hidden)
	}
}

func TestStreamingServiceForwardsToListeners(t *testing.T) {
	svc := NewService[catalog.Bond]()
	var received []PriceStream[catalog.Bond]
	svc.AddListener(fabric.OnAdd(func(ps PriceStream[catalog.Bond]) { received = append(received, ps) }))

	ps := PriceStream[catalog.Bond]{Product: catalog.Bond{CUSIP: "91282CAX9"}}
	svc.OnPriceStream(ps)

	if len(received) != 1 {
		t.Fatalf("expected 1 forwarded stream, got %d", len(received))
	}
}

func TestAlgoStreamingWiresIntoStreamingService(t *testing.T) {
	algo := NewAlgoStreamingService[catalog.Bond]()
	downstream := NewService[catalog.Bond]()
	algo.AddListener(fabric.OnAdd(downstream.OnPriceStream))

	bond := catalog.Bond{CUSIP: "91282CAX9"}
	algo.OnPrice(pricing.Price[catalog.Bond]{Product: bond, Mid: decimal.NewFromInt(100), BidOfferSpread: decimal.Zero})

	if _, err := downstream.GetData(bond.CUSIP); err != nil {
		t.Fatalf("expected streaming service to have received the forwarded stream: %v", err)
	}
}
