// Package booking implements TradeBookingService and the
// Execution→Booking synthesis bridge.
package booking

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/execution"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
)

// Book names the three desks a trade can settle into.
type Book string

const (
	TRSY1 Book = "TRSY1"
	TRSY2 Book = "TRSY2"
	TRSY3 Book = "TRSY3"
)

// bookCycle is indexed by k%3, where k is the 1-based synthesis
// counter: k=1 -> TRSY2, k=2 -> TRSY3, k=3 -> TRSY1, k=4 -> TRSY2, ...
var bookCycle = [3]Book{TRSY1, TRSY2, TRSY3}

// Trade is a booked trade.
type Trade[P catalog.Product] struct {
	Product  P
	TradeID  string
	Price    decimal.Decimal
	Book     Book
	Quantity decimal.Decimal
	Side     catalog.TradeSide
}

// Service ingests Trade entities from two sources: the inbound trades
// connector and the Execution→Trade synthesis bridge below. Cache is
// keyed by trade-id; OnMessage overwrites and notifies.
type Service[P catalog.Product] struct {
	svc *fabric.Service[string, Trade[P]]
}

// NewService constructs a TradeBookingService.
func NewService[P catalog.Product]() *Service[P] {
	return &Service[P]{
		svc: fabric.NewService[string, Trade[P]](func(tr Trade[P]) string { return tr.TradeID }),
	}
}

// AddListener registers a downstream listener (PositionService).
func (s *Service[P]) AddListener(l fabric.Listener[Trade[P]]) {
	s.svc.AddListener(l)
}

// OnMessage overwrites the cache entry for trade.TradeID and notifies
// listeners. Used directly by the inbound trades connector.
func (s *Service[P]) OnMessage(tr Trade[P]) {
	s.svc.OnMessage(tr)
}

// GetData returns the most recently cached trade for a trade id.
func (s *Service[P]) GetData(tradeID string) (Trade[P], error) {
	return s.svc.GetData(tradeID)
}

// SynthesisBridge listens on ExecutionService and books a synthesized
// Trade for every ExecutionOrder it observes. It is a listener, not a
// service — it holds no cache of its own and only forwards into the
// TradeBookingService it wraps, which is how the Execution→TradeBooking
// cycle is broken in ownership even though the dataflow graph itself is
// cyclic.
type SynthesisBridge[P catalog.Product] struct {
	mu      sync.Mutex
	counter int
	booking *Service[P]
}

// NewSynthesisBridge constructs a bridge that books synthesized trades
// into booking. Attach it with:
//
//	executionService.AddListener(fabric.OnAdd(bridge.OnExecution))
func NewSynthesisBridge[P catalog.Product](booking *Service[P]) *SynthesisBridge[P] {
	return &SynthesisBridge[P]{booking: booking}
}

// OnExecution implements the synthesis rule: k increments on every
// execution; book cycles TRSY2, TRSY3, TRSY1, TRSY2, ... starting from
// k=1; tradeId is the execution's order-id; quantity is its visible
// quantity; side is BUY for a BID execution and SELL otherwise; price is
// the execution's price.
func (b *SynthesisBridge[P]) OnExecution(e execution.ExecutionOrder[P]) {
	b.mu.Lock()
	b.counter++
	k := b.counter
	b.mu.Unlock()

	// book := "TRSY" followed by (1 + k mod 3); since k%3 ranges over
	// {0,1,2} and 1+k%3 ranges over {1,2,3}, this is bookCycle[k%3].
	book := bookCycle[k%3]

	trade := Trade[P]{
		Product:  e.Product,
		TradeID:  e.OrderID,
		Price:    e.Price,
		Book:     book,
		Quantity: e.VisibleQuantity,
		Side:     catalog.TradeSideFromOrderSide(e.Side),
	}
	b.booking.OnMessage(trade)
}
