package gui

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
	"github.com/ndrandal/bond-backoffice/internal/pricing"
)

func TestGUIThrottleDropsWithinInterval(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	var emitted []Tick[catalog.Bond]
	sink := fabric.ConnectorFunc[Tick[catalog.Bond]](func(tick Tick[catalog.Bond]) error {
		emitted = append(emitted, tick)
		return nil
	})

	svc := NewService[catalog.Bond](300*time.Millisecond, 100, sink, WithClock[catalog.Bond](clock))
	bond := catalog.Bond{CUSIP: "91282CAX9"}
	p := pricing.Price[catalog.Bond]{Product: bond, Mid: decimal.NewFromInt(100), BidOfferSpread: decimal.Zero}

	svc.OnPrice(p) // t=0, should emit
	now = now.Add(100 * time.Millisecond)
	svc.OnPrice(p) // within throttle window, should drop
	now = now.Add(250 * time.Millisecond)
	svc.OnPrice(p) // 350ms since last emit, should emit

	if len(emitted) != 2 {
		t.Fatalf("expected 2 emissions, got %d", len(emitted))
	}
	if emitted[1].Timestamp.Sub(emitted[0].Timestamp) < 300*time.Millisecond {
		t.Fatalf("consecutive emissions must be >= 300ms apart, got %v", emitted[1].Timestamp.Sub(emitted[0].Timestamp))
	}
}

func TestGUICapsAtMaxSamples(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	clock := func() time.Time { return now }

	count := 0
	sink := fabric.ConnectorFunc[Tick[catalog.Bond]](func(tick Tick[catalog.Bond]) error { count++; return nil })

	svc := NewService[catalog.Bond](10*time.Millisecond, 3, sink, WithClock[catalog.Bond](clock))
	bond := catalog.Bond{CUSIP: "91282CAX9"}
	p := pricing.Price[catalog.Bond]{Product: bond, Mid: decimal.NewFromInt(100), BidOfferSpread: decimal.Zero}

	for i := 0; i < 10; i++ {
		svc.OnPrice(p)
		now = now.Add(20 * time.Millisecond)
	}

	if count != 3 {
		t.Fatalf("expected exactly 3 emissions (max samples), got %d", count)
	}
	if svc.EmittedCount() != 3 {
		t.Fatalf("EmittedCount() = %d, want 3", svc.EmittedCount())
	}
}

func TestGUIMonotoneTimestamps(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	clock := func() time.Time { return now }

	var emitted []Tick[catalog.Bond]
	sink := fabric.ConnectorFunc[Tick[catalog.Bond]](func(tick Tick[catalog.Bond]) error { emitted = append(emitted, tick); return nil })

	svc := NewService[catalog.Bond](50*time.Millisecond, 100, sink, WithClock[catalog.Bond](clock))
	bond := catalog.Bond{CUSIP: "91282CAX9"}
	p := pricing.Price[catalog.Bond]{Product: bond, Mid: decimal.NewFromInt(100), BidOfferSpread: decimal.Zero}

	for i := 0; i < 5; i++ {
		svc.OnPrice(p)
		now = now.Add(60 * time.Millisecond)
	}

	for i := 1; i < len(emitted); i++ {
		if !emitted[i].Timestamp.After(emitted[i-1].Timestamp) {
			t.Fatalf("timestamps must be strictly monotone: %v then %v", emitted[i-1].Timestamp, emitted[i].Timestamp)
		}
	}
}
