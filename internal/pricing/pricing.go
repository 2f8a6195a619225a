// Package pricing implements the Price entity, the Treasury fractional
// price codec, and PricingService.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
)

// Price is a two-way market for a product: a mid and an absolute
// bid-offer spread.
type Price[P catalog.Product] struct {
	Product        P
	Mid            decimal.Decimal
	BidOfferSpread decimal.Decimal
}

// Service ingests Price and fans it out to listeners unchanged. It
// wraps fabric.Service to add one piece of validation: a non-negative
// spread.
type Service[P catalog.Product] struct {
	svc *fabric.Service[string, Price[P]]
}

// NewService constructs a PricingService.
func NewService[P catalog.Product]() *Service[P] {
	return &Service[P]{
		svc: fabric.NewService[string, Price[P]](func(p Price[P]) string {
			return p.Product.ProductID()
		}),
	}
}

// AddListener registers a downstream listener (e.g. GUIService, the
// Price→PriceStream bridge into AlgoStreamingService).
func (s *Service[P]) AddListener(l fabric.Listener[Price[P]]) {
	s.svc.AddListener(l)
}

// OnMessage validates and ingests a Price, replacing the cache entry for
// its product and notifying listeners.
func (s *Service[P]) OnMessage(p Price[P]) error {
	if p.BidOfferSpread.IsNegative() {
		return fmt.Errorf("pricing: %w: negative spread %s for %s", fabric.ErrMalformedRecord, p.BidOfferSpread, p.Product.ProductID())
	}
	s.svc.OnMessage(p)
	return nil
}

// GetData returns the most recently cached Price for a product id.
func (s *Service[P]) GetData(productID string) (Price[P], error) {
	return s.svc.GetData(productID)
}
