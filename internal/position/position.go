// Package position implements PositionService.
package position

import (
	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/booking"
	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
)

// Position tracks a product's signed long quantity per book.
type Position[P catalog.Product] struct {
	Product P
	Books   map[booking.Book]decimal.Decimal
}

// clone returns a deep copy so GetData never leaks a mutable reference
// into the cache.
func (p Position[P]) clone() Position[P] {
	books := make(map[booking.Book]decimal.Decimal, len(p.Books))
	for k, v := range p.Books {
		books[k] = v
	}
	return Position[P]{Product: p.Product, Books: books}
}

// AddPosition applies a signed delta to the named book: +quantity for a
// BUY, -quantity for a SELL. A book with no prior entry defaults to 0
// before the delta is applied.
func (p *Position[P]) AddPosition(book booking.Book, quantity decimal.Decimal, side catalog.TradeSide) {
	if p.Books == nil {
		p.Books = make(map[booking.Book]decimal.Decimal)
	}
	delta := quantity
	if side == catalog.TradeSell {
		delta = quantity.Neg()
	}
	p.Books[book] = p.Books[book].Add(delta)
}

// Aggregate returns the signed sum of quantity across every book.
func (p Position[P]) Aggregate() decimal.Decimal {
	total := decimal.Zero
	for _, q := range p.Books {
		total = total.Add(q)
	}
	return total
}

// Service tracks per-book position, pre-populated with an empty Position
// for every catalog entry at construction.
type Service[P catalog.Product] struct {
	svc *fabric.Service[string, Position[P]]
}

// NewService constructs a PositionService, pre-seeding an empty Position
// for every product returned by products — this is how "missing cache
// entry on GetData is a programming error" is upheld for any known
// CUSIP.
func NewService[P catalog.Product](products []P) *Service[P] {
	svc := fabric.NewService[string, Position[P]](func(p Position[P]) string {
		return p.Product.ProductID()
	})
	s := &Service[P]{svc: svc}
	for _, prod := range products {
		svc.Seed(prod.ProductID(), Position[P]{Product: prod, Books: make(map[booking.Book]decimal.Decimal)})
	}
	return s
}

// AddListener registers a downstream listener (RiskService).
func (s *Service[P]) AddListener(l fabric.Listener[Position[P]]) {
	s.svc.AddListener(l)
}

// OnTrade locates the pre-seeded Position for t.Product (must exist; a
// miss here is a programming error), mutates it with AddPosition,
// overwrites the cache, and notifies listeners.
func (s *Service[P]) OnTrade(t booking.Trade[P]) {
	productID := t.Product.ProductID()
	p, err := s.svc.GetData(productID)
	if err != nil {
		panic(fabric.Fatal("position: no pre-seeded Position for known product " + productID))
	}
	p = p.clone()
	p.AddPosition(t.Book, t.Quantity, t.Side)
	s.svc.OnMessage(p)
}

// GetData returns a copy of the cached Position for a product id. Books
// is cloned so the caller cannot mutate the cache through it.
func (s *Service[P]) GetData(productID string) (Position[P], error) {
	p, err := s.svc.GetData(productID)
	if err != nil {
		return Position[P]{}, err
	}
	return p.clone(), nil
}

// GetAggregatePosition returns the signed sum across every book for a
// product id.
func (s *Service[P]) GetAggregatePosition(productID string) (decimal.Decimal, error) {
	p, err := s.svc.GetData(productID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return p.Aggregate(), nil
}
