// Package gui implements the rate-limited GUI tick sampler.
package gui

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
	"github.com/ndrandal/bond-backoffice/internal/pricing"
)

// DefaultThrottle and DefaultMaxSamples are the sampler's defaults.
const (
	DefaultThrottle   = 300 * time.Millisecond
	DefaultMaxSamples = 100
)

// Tick is one sampled mid/spread observation pushed to the GUI connector.
type Tick[P catalog.Product] struct {
	Product   P
	Mid       decimal.Decimal
	Spread    decimal.Decimal
	Timestamp time.Time
}

// Service throttles incoming Price updates down to at most one emission
// per interval T, and at most N emissions total per run.
//
// It uses golang.org/x/time/rate rather than hand-rolled timestamp
// arithmetic: rate.Limiter's zero-valued internal clock already grants
// the first AllowN call its full burst, so the first tick always emits
// (as long as N > 0) without any special-casing.
type Service[P catalog.Product] struct {
	mu         sync.Mutex
	limiter    *rate.Limiter
	maxSamples int
	emitted    int
	clock      func() time.Time
	connector  fabric.Connector[Tick[P]]
	onDrop     func()
}

// Option configures a Service.
type Option[P catalog.Product] func(*Service[P])

// WithClock overrides the wall clock, for deterministic tests.
func WithClock[P catalog.Product](clock func() time.Time) Option[P] {
	return func(s *Service[P]) { s.clock = clock }
}

// WithDropHook registers a callback invoked every time a tick is
// throttled away, used to feed telemetry counters.
func WithDropHook[P catalog.Product](fn func()) Option[P] {
	return func(s *Service[P]) { s.onDrop = fn }
}

// NewService constructs a GUIService. interval <= 0 defaults to
// DefaultThrottle; maxSamples <= 0 defaults to DefaultMaxSamples.
func NewService[P catalog.Product](interval time.Duration, maxSamples int, connector fabric.Connector[Tick[P]], opts ...Option[P]) *Service[P] {
	if interval <= 0 {
		interval = DefaultThrottle
	}
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	s := &Service[P]{
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		maxSamples: maxSamples,
		clock:      time.Now,
		connector:  connector,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnPrice is the bridging listener callback: attach with
// pricingService.AddListener(fabric.OnAdd(guiService.OnPrice)).
func (s *Service[P]) OnPrice(p pricing.Price[P]) {
	s.mu.Lock()
	if s.emitted >= s.maxSamples {
		s.mu.Unlock()
		return
	}
	now := s.clock()
	if !s.limiter.AllowN(now, 1) {
		s.mu.Unlock()
		if s.onDrop != nil {
			s.onDrop()
		}
		return
	}
	s.emitted++
	s.mu.Unlock()

	if s.connector == nil {
		return
	}
	_ = s.connector.Publish(Tick[P]{
		Product:   p.Product,
		Mid:       p.Mid,
		Spread:    p.BidOfferSpread,
		Timestamp: now,
	})
}

// EmittedCount returns the number of ticks emitted so far, for tests and
// metrics.
func (s *Service[P]) EmittedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emitted
}
