// Package execution implements AlgoExecutionService and ExecutionService.
package execution

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
	"github.com/ndrandal/bond-backoffice/internal/marketdata"
)

// maxTradableSpread is the minimum tradable tick, 1/128.
var maxTradableSpread = decimal.New(1, 0).Div(decimal.New(128, 0))

// OrderType enumerates ExecutionOrder order types. Only Market
// is ever produced by AlgoExecutionService; the others exist
// for completeness of the entity model.
type OrderType int

const (
	Market OrderType = iota
	Limit
	FOK
	IOC
	Stop
)

// ExecutionOrder is an aggressing order emitted by AlgoExecutionService.
type ExecutionOrder[P catalog.Product] struct {
	Product         P
	OrderID         string
	Side            catalog.Side
	Price           decimal.Decimal
	VisibleQuantity decimal.Decimal
	HiddenQuantity  decimal.Decimal
	OrderType       OrderType
	ParentID        string
	IsChild         bool
}

// AlgoExecutionService consumes order books and emits aggressing
// ExecutionOrders, alternating side BID/OFFER and gating on spread.
type AlgoExecutionService[P catalog.Product] struct {
	mu        sync.Mutex
	counter   int
	listeners []fabric.Listener[ExecutionOrder[P]]
	onDrop    func()
}

// Option configures an AlgoExecutionService.
type Option[P catalog.Product] func(*AlgoExecutionService[P])

// WithDropHook registers a callback invoked every time a book is dropped
// for exceeding the minimum tradable tick, used to feed telemetry
// counters.
func WithDropHook[P catalog.Product](fn func()) Option[P] {
	return func(s *AlgoExecutionService[P]) { s.onDrop = fn }
}

// NewAlgoExecutionService constructs an AlgoExecutionService.
func NewAlgoExecutionService[P catalog.Product](opts ...Option[P]) *AlgoExecutionService[P] {
	s := &AlgoExecutionService[P]{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddListener registers a downstream listener (ExecutionService).
func (s *AlgoExecutionService[P]) AddListener(l fabric.Listener[ExecutionOrder[P]]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// OnBook increments the counter, alternates side on parity, drops the
// book if its spread exceeds the minimum tradable tick, and otherwise
// crosses it and emits.
func (s *AlgoExecutionService[P]) OnBook(book marketdata.OrderBook[P]) {
	s.mu.Lock()
	s.counter++
	c := s.counter
	listeners := append([]fabric.Listener[ExecutionOrder[P]](nil), s.listeners...)
	s.mu.Unlock()

	var side catalog.Side
	if c%2 != 0 {
		side = catalog.SideBid
	} else {
		side = catalog.SideOffer
	}

	spread, err := book.Spread()
	if err != nil {
		return
	}
	if spread.GreaterThan(maxTradableSpread) {
		if s.onDrop != nil {
			s.onDrop()
		}
		return
	}

	bestBid, hasBid := book.BestBid()
	bestOffer, hasOffer := book.BestOffer()
	if !hasBid || !hasOffer {
		return
	}

	orderID := decimal.NewFromInt(int64(c)).String()

	var price, quantity decimal.Decimal
	if side == catalog.SideBid {
		price = bestBid.Price
		quantity = bestOffer.Quantity
	} else {
		price = bestOffer.Price
		quantity = bestBid.Quantity
	}

	order := ExecutionOrder[P]{
		Product:         book.Product,
		OrderID:         orderID,
		Side:            side,
		Price:           price,
		VisibleQuantity: quantity,
		HiddenQuantity:  quantity,
		OrderType:       Market,
		ParentID:        orderID,
		IsChild:         false,
	}

	for _, l := range listeners {
		l.OnAdd(order)
	}
}

// ExecutionService forwards ExecutionOrder entities to listeners. It is a
// pure fan-out node: it does not cache state, and its ExecuteOrder entry
// point's market argument is accepted but unused downstream.
type ExecutionService[P catalog.Product] struct {
	mu        sync.Mutex
	listeners []fabric.Listener[ExecutionOrder[P]]
}

// NewExecutionService constructs an ExecutionService.
func NewExecutionService[P catalog.Product]() *ExecutionService[P] {
	return &ExecutionService[P]{}
}

// AddListener registers a downstream listener (e.g. the TradeBooking
// synthesis bridge).
func (s *ExecutionService[P]) AddListener(l fabric.Listener[ExecutionOrder[P]]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// ExecuteOrder forwards order to every registered listener. market is
// accepted for interface parity with the upstream call site and is not
// otherwise used.
func (s *ExecutionService[P]) ExecuteOrder(order ExecutionOrder[P], market any) {
	s.mu.Lock()
	listeners := append([]fabric.Listener[ExecutionOrder[P]](nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l.OnAdd(order)
	}
}
