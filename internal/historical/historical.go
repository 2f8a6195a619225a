// Package historical implements HistoricalDataService: a
// generic terminal sink fed by every other service in the pipeline.
package historical

import (
	"strconv"
	"sync/atomic"

	"github.com/ndrandal/bond-backoffice/internal/fabric"
)

// Counter produces a monotonic, never-reset sequence of persistence keys
//. The default is an in-process atomic counter; RedisCounter
// swaps in a durable, cross-process sequence for deployments that must
// survive a process restart without recycling keys.
type Counter interface {
	Next() uint64
}

// inMemoryCounter is the default Counter: a process-lifetime atomic
// sequence, starting at 0.
type inMemoryCounter struct {
	n uint64
}

func (c *inMemoryCounter) Next() uint64 {
	return atomic.AddUint64(&c.n, 1) - 1
}

// Service persists every entity of type T it receives by forwarding it to
// connector, advancing a monotonic, never-reset persistence-key counter
// once per entity.
type Service[T any] struct {
	counter   Counter
	connector fabric.Connector[T]
}

// Option configures a Service.
type Option[T any] func(*Service[T])

// WithCounter overrides the default in-memory Counter, e.g. with a
// RedisCounter for a durable sequence.
func WithCounter[T any](c Counter) Option[T] {
	return func(s *Service[T]) { s.counter = c }
}

// NewService constructs a HistoricalDataService backed by connector.
func NewService[T any](connector fabric.Connector[T], opts ...Option[T]) *Service[T] {
	s := &Service[T]{
		counter:   &inMemoryCounter{},
		connector: connector,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnMessage persists one entity: it advances the counter and forwards the
// entity to the connector. The counter value itself is not attached to
// T — callers that need the key (e.g. a transport connector emitting a
// surrogate record id) should call NextKey directly before Publish.
func (s *Service[T]) OnMessage(v T) {
	s.NextKey()
	_ = s.connector.Publish(v)
}

// NextKey returns the next persistence key in the monotonic sequence,
// formatted as a decimal string.
func (s *Service[T]) NextKey() string {
	return strconv.FormatUint(s.counter.Next(), 10)
}
