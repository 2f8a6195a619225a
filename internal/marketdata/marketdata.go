// Package marketdata implements the top-of-book order book entity and
// MarketDataService.
package marketdata

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
)

// Order is a single resting order in a book.
type Order struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Side     catalog.Side
}

// OrderBook holds the bid and offer stacks for a product, best-first
// (index 0 = best). Invariant: best-offer.Price >= best-bid.Price.
type OrderBook[P catalog.Product] struct {
	Product P
	Bids    []Order // index 0 = best bid
	Offers  []Order // index 0 = best offer
}

// BestBid returns the best bid, or the zero Order and false if the book
// has no bids.
func (b OrderBook[P]) BestBid() (Order, bool) {
	if len(b.Bids) == 0 {
		return Order{}, false
	}
	return b.Bids[0], true
}

// BestOffer returns the best offer, or the zero Order and false if the
// book has no offers.
func (b OrderBook[P]) BestOffer() (Order, bool) {
	if len(b.Offers) == 0 {
		return Order{}, false
	}
	return b.Offers[0], true
}

// Spread returns best-offer.Price - best-bid.Price. Returns an
// error if either side is empty.
func (b OrderBook[P]) Spread() (decimal.Decimal, error) {
	bid, ok := b.BestBid()
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("marketdata: empty bid side for %s", b.Product.ProductID())
	}
	offer, ok := b.BestOffer()
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("marketdata: empty offer side for %s", b.Product.ProductID())
	}
	return offer.Price.Sub(bid.Price), nil
}

// Service ingests OrderBook snapshots, keyed by product id, overwriting
// the cache on every message.
type Service[P catalog.Product] struct {
	svc *fabric.Service[string, OrderBook[P]]
}

// NewService constructs a MarketDataService.
func NewService[P catalog.Product]() *Service[P] {
	return &Service[P]{
		svc: fabric.NewService[string, OrderBook[P]](func(b OrderBook[P]) string {
			return b.Product.ProductID()
		}),
	}
}

// AddListener registers a downstream listener (AlgoExecutionService).
func (s *Service[P]) AddListener(l fabric.Listener[OrderBook[P]]) {
	s.svc.AddListener(l)
}

// OnMessage ingests a book snapshot, overwriting the cache for its
// product and notifying listeners.
func (s *Service[P]) OnMessage(b OrderBook[P]) {
	s.svc.OnMessage(b)
}

// GetData returns the most recently cached book for a product id.
func (s *Service[P]) GetData(productID string) (OrderBook[P], error) {
	return s.svc.GetData(productID)
}

// GetBestBidOffer returns the best bid and best offer for a product id.
func (s *Service[P]) GetBestBidOffer(productID string) (bid, offer Order, err error) {
	b, err := s.svc.GetData(productID)
	if err != nil {
		return Order{}, Order{}, err
	}
	bestBid, ok := b.BestBid()
	if !ok {
		return Order{}, Order{}, fmt.Errorf("marketdata: empty bid side for %s", productID)
	}
	bestOffer, ok := b.BestOffer()
	if !ok {
		return Order{}, Order{}, fmt.Errorf("marketdata: empty offer side for %s", productID)
	}
	return bestBid, bestOffer, nil
}
