package fabric

import (
	"errors"
	"testing"
)

type stubEntity struct {
	id    string
	value int
}

func TestOnMessageOverwritesCache(t *testing.T) {
	s := NewService[string, stubEntity](func(e stubEntity) string { return e.id })

	s.OnMessage(stubEntity{id: "A", value: 1})
	s.OnMessage(stubEntity{id: "A", value: 2})

	got, err := s.GetData("A")
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if got.value != 2 {
		t.Fatalf("expected overwritten value 2, got %d", got.value)
	}
}

func TestGetDataMissingReturnsNotFound(t *testing.T) {
	s := NewService[string, stubEntity](func(e stubEntity) string { return e.id })

	_, err := s.GetData("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNotifyCallsListenersInRegistrationOrder(t *testing.T) {
	s := NewService[string, stubEntity](func(e stubEntity) string { return e.id })

	var order []int
	s.AddListener(OnAdd(func(e stubEntity) { order = append(order, 1) }))
	s.AddListener(OnAdd(func(e stubEntity) { order = append(order, 2) }))
	s.AddListener(OnAdd(func(e stubEntity) { order = append(order, 3) }))

	s.OnMessage(stubEntity{id: "A", value: 1})

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("expected %d listener calls, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("listener order mismatch at %d: want %d, got %d", i, want[i], order[i])
		}
	}
}

func TestSeedDoesNotNotify(t *testing.T) {
	s := NewService[string, stubEntity](func(e stubEntity) string { return e.id })

	called := false
	s.AddListener(OnAdd(func(e stubEntity) { called = true }))
	s.Seed("A", stubEntity{id: "A", value: 0})

	if called {
		t.Fatal("Seed must not notify listeners")
	}
	got, err := s.GetData("A")
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if got.value != 0 {
		t.Fatalf("expected seeded zero value, got %d", got.value)
	}
}

func TestGetDataReturnsCopyNotReference(t *testing.T) {
	type withSlice struct {
		id   string
		tags []string
	}
	s := NewService[string, withSlice](func(e withSlice) string { return e.id })
	s.OnMessage(withSlice{id: "A", tags: []string{"x"}})

	got, _ := s.GetData("A")
	got.id = "mutated"

	again, _ := s.GetData("A")
	if again.id != "A" {
		t.Fatalf("mutating the returned value leaked into the cache: %q", again.id)
	}
}

func TestFanoutStopsAtFirstError(t *testing.T) {
	var calls []int
	boom := errors.New("boom")

	fo := Fanout[int]{
		ConnectorFunc[int](func(v int) error { calls = append(calls, 1); return nil }),
		ConnectorFunc[int](func(v int) error { calls = append(calls, 2); return boom }),
		ConnectorFunc[int](func(v int) error { calls = append(calls, 3); return nil }),
	}

	err := fo.Publish(42)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected fanout to stop after second connector, got calls=%v", calls)
	}
}
