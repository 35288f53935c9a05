package observability

import "context"

// MultiObserver delivers each kernel turn event to several observers in
// order. Resolve builds one from configured names, and the CLI wraps that
// result again to add the Prometheus counter.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates a MultiObserver. Nil and no-op observers are
// dropped, and nested MultiObservers are flattened so each event passes
// through a single loop.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	flat := make([]Observer, 0, len(observers))
	for _, obs := range observers {
		switch o := obs.(type) {
		case nil, NoOpObserver, *NoOpObserver:
		case *MultiObserver:
			flat = append(flat, o.observers...)
		default:
			flat = append(flat, obs)
		}
	}
	return &MultiObserver{observers: flat}
}

// Len reports how many observers receive each event.
func (m *MultiObserver) Len() int {
	return len(m.observers)
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}
