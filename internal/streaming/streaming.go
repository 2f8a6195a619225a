// Package streaming implements the algorithmic two-way price stream
// and the decoupling fan-out node downstream of it.
package streaming

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
	"github.com/ndrandal/bond-backoffice/internal/pricing"
)

var two = decimal.NewFromInt(2)

// PriceStreamOrder is one side of a two-way algorithmic market, with a
// hidden quantity twice its visible quantity.
type PriceStreamOrder struct {
	Price   decimal.Decimal
	Visible decimal.Decimal
	Hidden  decimal.Decimal
	Side    catalog.Side
}

// PriceStream is the two-way market AlgoStreamingService emits for a
// product.
type PriceStream[P catalog.Product] struct {
	Product P
	Bid     PriceStreamOrder
	Offer   PriceStreamOrder
}

// AlgoStreamingService consumes Price via a bridging listener on
// PricingService and emits PriceStream, alternating the visible size
// between 2,000,000 and 1,000,000 on every tick.
type AlgoStreamingService[P catalog.Product] struct {
	svc *fabric.Service[string, PriceStream[P]]

	mu      sync.Mutex
	counter int // alternates 0,1
}

// NewAlgoStreamingService constructs an AlgoStreamingService.
func NewAlgoStreamingService[P catalog.Product]() *AlgoStreamingService[P] {
	return &AlgoStreamingService[P]{
		svc: fabric.NewService[string, PriceStream[P]](func(ps PriceStream[P]) string {
			return ps.Product.ProductID()
		}),
	}
}

// AddListener registers a downstream listener (StreamingService).
func (s *AlgoStreamingService[P]) AddListener(l fabric.Listener[PriceStream[P]]) {
	s.svc.AddListener(l)
}

// GetData returns the most recently emitted PriceStream for a product id.
func (s *AlgoStreamingService[P]) GetData(productID string) (PriceStream[P], error) {
	return s.svc.GetData(productID)
}

// OnPrice is the bridging listener callback: attach with
// pricingService.AddListener(fabric.OnAdd(algoStreaming.OnPrice)).
//
// Algorithm: mid := p.Mid, spread := p.BidOfferSpread,
// bidPrice := mid - spread/2, offerPrice := mid + spread/2, visible
// alternates 2,000,000 / 1,000,000 on a toggling counter starting at 0,
// hidden := 2*visible.
func (s *AlgoStreamingService[P]) OnPrice(p pricing.Price[P]) {
	s.mu.Lock()
	c := s.counter
	s.counter = 1 - s.counter
	s.mu.Unlock()

	half := p.BidOfferSpread.Div(two)
	bidPrice := p.Mid.Sub(half)
	offerPrice := p.Mid.Add(half)

	visible := decimal.NewFromInt(2_000_000)
	if c == 1 {
		visible = decimal.NewFromInt(1_000_000)
	}
	hidden := visible.Mul(two)

	ps := PriceStream[P]{
		Product: p.Product,
		Bid:     PriceStreamOrder{Price: bidPrice, Visible: visible, Hidden: hidden, Side: catalog.SideBid},
		Offer:   PriceStreamOrder{Price: offerPrice, Visible: visible, Hidden: hidden, Side: catalog.SideOffer},
	}
	s.svc.OnMessage(ps)
}

// Service forwards received PriceStream entities to its listeners. It is
// purely a fan-out node, decoupling algo generation from historical
// persistence and any future distribution.
type Service[P catalog.Product] struct {
	svc *fabric.Service[string, PriceStream[P]]
}

// NewService constructs the StreamingService fan-out node.
func NewService[P catalog.Product]() *Service[P] {
	return &Service[P]{
		svc: fabric.NewService[string, PriceStream[P]](func(ps PriceStream[P]) string {
			return ps.Product.ProductID()
		}),
	}
}

// AddListener registers a downstream listener (historical persistence).
func (s *Service[P]) AddListener(l fabric.Listener[PriceStream[P]]) {
	s.svc.AddListener(l)
}

// GetData returns the most recently forwarded PriceStream for a product id.
func (s *Service[P]) GetData(productID string) (PriceStream[P], error) {
	return s.svc.GetData(productID)
}

// OnPriceStream is the bridging listener callback: attach with
// algoStreaming.AddListener(fabric.OnAdd(streamingSvc.OnPriceStream)).
func (s *Service[P]) OnPriceStream(ps PriceStream[P]) {
	s.svc.OnMessage(ps)
}
