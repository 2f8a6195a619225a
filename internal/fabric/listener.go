package fabric

// Listener is a non-owning observer of a Service's mutations, the
// connective tissue of the dataflow DAG. Only OnAdd is
// exercised by the core graph today; OnRemove and OnUpdate exist for
// completeness and are no-ops on every wired edge.
type Listener[V any] interface {
	OnAdd(v V)
	OnRemove(v V)
	OnUpdate(old, updated V)
}

// Funcs adapts plain functions to Listener without requiring a full type
// for every bridging edge. Nil fields are no-ops — OnRemove and OnUpdate
// are present for interface completeness even where no caller needs them.
type Funcs[V any] struct {
	Add    func(v V)
	Remove func(v V)
	Update func(old, updated V)
}

func (f Funcs[V]) OnAdd(v V) {
	if f.Add != nil {
		f.Add(v)
	}
}

func (f Funcs[V]) OnRemove(v V) {
	if f.Remove != nil {
		f.Remove(v)
	}
}

func (f Funcs[V]) OnUpdate(old, updated V) {
	if f.Update != nil {
		f.Update(old, updated)
	}
}

// OnAdd builds a Listener whose OnAdd callback is fn and whose other two
// callbacks are no-ops — the common case for a bridging edge in the DAG.
func OnAdd[V any](fn func(v V)) Listener[V] {
	return Funcs[V]{Add: fn}
}
