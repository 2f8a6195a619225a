package historical

import (
	"testing"

	"github.com/ndrandal/bond-backoffice/internal/fabric"
)

func TestServiceForwardsToConnector(t *testing.T) {
	var received []string
	sink := fabric.ConnectorFunc[string](func(v string) error {
		received = append(received, v)
		return nil
	})

	svc := NewService[string](sink)
	svc.OnMessage("a")
	svc.OnMessage("b")

	if len(received) != 2 || received[0] != "a" || received[1] != "b" {
		t.Fatalf("expected forwarded values in order, got %v", received)
	}
}

func TestCounterStartsAtZero(t *testing.T) {
	sink := fabric.ConnectorFunc[int](func(v int) error { return nil })
	svc := NewService[int](sink)

	if k := svc.NextKey(); k != "0" {
		t.Fatalf("expected first key to be \"0\", got %q", k)
	}
}

func TestCounterIsMonotonicAndNeverResets(t *testing.T) {
	sink := fabric.ConnectorFunc[int](func(v int) error { return nil })
	svc := NewService[int](sink)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		k := svc.NextKey()
		if seen[k] {
			t.Fatalf("key %s repeated at iteration %d", k, i)
		}
		seen[k] = true
	}
	if len(seen) != 50 {
		t.Fatalf("expected 50 distinct keys, got %d", len(seen))
	}
}

type fakeCounter struct{ calls int }

func (c *fakeCounter) Next() uint64 {
	c.calls++
	return uint64(c.calls)
}

func TestWithCounterOverridesDefault(t *testing.T) {
	sink := fabric.ConnectorFunc[int](func(v int) error { return nil })
	fc := &fakeCounter{}
	svc := NewService[int](sink, WithCounter[int](fc))

	svc.NextKey()
	svc.NextKey()
	if fc.calls != 2 {
		t.Fatalf("expected custom counter to be used, got %d calls", fc.calls)
	}
}
