// Package risk implements RiskService.
package risk

import (
	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
	"github.com/ndrandal/bond-backoffice/internal/position"
)

// PV01 is a product's total price-value-of-a-basis-point exposure at its
// current aggregate quantity.
type PV01[P catalog.Product] struct {
	Product   P
	PerUnit   decimal.Decimal
	Quantity  decimal.Decimal
	TotalPV01 decimal.Decimal
}

// Service ingests Position via a listener on PositionService, converts
// each into a PV01 using the bond catalog, caches by product id, and
// notifies listeners.
type Service[P catalog.Product] struct {
	catalog *catalog.Catalog
	svc     *fabric.Service[string, PV01[P]]
}

// NewService constructs a RiskService against cat, the process-wide bond
// catalog.
func NewService[P catalog.Product](cat *catalog.Catalog) *Service[P] {
	return &Service[P]{
		catalog: cat,
		svc:     fabric.NewService[string, PV01[P]](func(r PV01[P]) string { return r.Product.ProductID() }),
	}
}

// AddListener registers a downstream listener (HistoricalDataService).
func (s *Service[P]) AddListener(l fabric.Listener[PV01[P]]) {
	s.svc.AddListener(l)
}

// OnPosition looks up the product's per-unit PV01 from the catalog,
// multiplies it by the position's aggregate quantity, overwrites the
// cache, and notifies listeners.
func (s *Service[P]) OnPosition(p position.Position[P]) {
	entry, err := s.catalog.Lookup(p.Product.ProductID())
	if err != nil {
		return
	}
	qty := p.Aggregate()
	s.svc.OnMessage(PV01[P]{
		Product:   p.Product,
		PerUnit:   entry.PV01,
		Quantity:  qty,
		TotalPV01: entry.PV01.Mul(qty),
	})
}

// GetData returns the cached PV01 for a product id.
func (s *Service[P]) GetData(productID string) (PV01[P], error) {
	return s.svc.GetData(productID)
}

// GetBucketedRisk computes the quantity-weighted mean per-unit PV01 over
// every product in sector: Σ(qᵢ·pv01ᵢ)/Σqᵢ. A product with no cached PV01
// contributes zero quantity. Returns zero, not an error, when the total
// quantity across the sector is zero.
func (s *Service[P]) GetBucketedRisk(sector catalog.Sector) decimal.Decimal {
	entries := s.catalog.BySector(sector)

	totalWeighted := decimal.Zero
	totalQty := decimal.Zero
	for _, e := range entries {
		r, err := s.svc.GetData(e.Bond.CUSIP)
		if err != nil {
			continue
		}
		totalWeighted = totalWeighted.Add(r.Quantity.Mul(r.PerUnit))
		totalQty = totalQty.Add(r.Quantity)
	}
	if totalQty.IsZero() {
		return decimal.Zero
	}
	return totalWeighted.Div(totalQty)
}
