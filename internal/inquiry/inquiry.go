// Package inquiry implements InquiryService's state machine.
package inquiry

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/bond-backoffice/internal/catalog"
	"github.com/ndrandal/bond-backoffice/internal/fabric"
)

// par is the flat price every inquiry is quoted at on RECEIVED.
var par = decimal.NewFromInt(100)

// State is an Inquiry's position in the RECEIVED→QUOTED→DONE/REJECTED
// state machine.
type State string

const (
	Received         State = "RECEIVED"
	Quoted           State = "QUOTED"
	Done             State = "DONE"
	Rejected         State = "REJECTED"
	CustomerRejected State = "CUSTOMER_REJECTED"
)

// Inquiry is a customer request for a quote.
type Inquiry[P catalog.Product] struct {
	InquiryID string
	Product   P
	Side      catalog.Side
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	State     State
}

// Service drives the Inquiry state machine. Cache is keyed by
// inquiry-id.
type Service[P catalog.Product] struct {
	mu        sync.Mutex
	cache     map[string]Inquiry[P]
	notified  map[string]bool
	quote     fabric.Connector[Inquiry[P]]
	listeners []fabric.Listener[Inquiry[P]]
}

// NewService constructs an InquiryService. quote is the quote connector
// called on the RECEIVED→QUOTED transition; pass NewLoopbackQuoteConnector
// for an in-process pseudo-loopback, or a transport connector that
// round-trips through the helper reader/writer process.
func NewService[P catalog.Product](quote fabric.Connector[Inquiry[P]]) *Service[P] {
	return &Service[P]{
		cache:    make(map[string]Inquiry[P]),
		notified: make(map[string]bool),
		quote:    quote,
	}
}

// AddListener registers a downstream listener (HistoricalDataService).
func (s *Service[P]) AddListener(l fabric.Listener[Inquiry[P]]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// GetData returns the cached Inquiry for an inquiry id.
func (s *Service[P]) GetData(inquiryID string) (Inquiry[P], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inq, ok := s.cache[inquiryID]
	if !ok {
		return Inquiry[P]{}, fabric.NotFound(inquiryID)
	}
	return inq, nil
}

// OnMessage drives one state-machine step:
//
//	RECEIVED -> set price to par, send to the quote connector, which
//	            drives the QUOTED transition and the resulting second
//	            OnMessage pass.
//	QUOTED   -> transition to DONE, send the update to the quote
//	            connector, notify.
//	DONE     -> notify (terminal).
//	any other -> REJECTED, notify.
//
// Every inquiry that reaches DONE or REJECTED is notified exactly once.
func (s *Service[P]) OnMessage(inq Inquiry[P]) {
	switch inq.State {
	case Received:
		inq.Price = par
		s.store(inq)
		if s.quote != nil {
			_ = s.quote.Publish(inq)
		}
	case Quoted:
		inq.State = Done
		s.store(inq)
		if s.quote != nil {
			_ = s.quote.Publish(inq)
		}
		s.notifyOnce(inq)
	case Done:
		s.store(inq)
		s.notifyOnce(inq)
	default:
		inq.State = Rejected
		s.store(inq)
		s.notifyOnce(inq)
	}
}

func (s *Service[P]) store(inq Inquiry[P]) {
	s.mu.Lock()
	s.cache[inq.InquiryID] = inq
	s.mu.Unlock()
}

// notifyOnce notifies listeners the first time a given inquiry id
// reaches a terminal state, and is a no-op on any subsequent call for the
// same id.
func (s *Service[P]) notifyOnce(inq Inquiry[P]) {
	s.mu.Lock()
	if s.notified[inq.InquiryID] {
		s.mu.Unlock()
		return
	}
	s.notified[inq.InquiryID] = true
	listeners := make([]fabric.Listener[Inquiry[P]], len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.OnAdd(inq)
	}
}

// LoopbackQuoteConnector is a pseudo-loopback quote connector: when
// Publish is called with a RECEIVED inquiry, it flips the state to
// QUOTED and triggers a second OnMessage pass on the wrapped service;
// called with anything else (notably DONE) it is a no-op.
type LoopbackQuoteConnector[P catalog.Product] struct {
	service *Service[P]
}

// NewLoopbackQuoteConnector constructs a LoopbackQuoteConnector bound to
// service. Wire it in with NewService(NewLoopbackQuoteConnector(svc)) —
// note the connector must be constructed after the service, so callers
// typically build the service once with a nil connector and then set it,
// or use NewServiceWithLoopback below.
func NewLoopbackQuoteConnector[P catalog.Product](service *Service[P]) *LoopbackQuoteConnector[P] {
	return &LoopbackQuoteConnector[P]{service: service}
}

// Publish implements fabric.Connector[Inquiry[P]].
func (c *LoopbackQuoteConnector[P]) Publish(inq Inquiry[P]) error {
	if inq.State != Received {
		return nil
	}
	inq.State = Quoted
	c.service.OnMessage(inq)
	return nil
}

// NewServiceWithLoopback constructs a Service wired to its own
// LoopbackQuoteConnector, resolving the construction-order chicken/egg
// problem NewLoopbackQuoteConnector's doc comment calls out.
func NewServiceWithLoopback[P catalog.Product]() *Service[P] {
	s := &Service[P]{
		cache:    make(map[string]Inquiry[P]),
		notified: make(map[string]bool),
	}
	s.quote = &LoopbackQuoteConnector[P]{service: s}
	return s
}
