package observability

import "context"

// NoOpObserver discards kernel events. It is registered as "noop" for
// deployments that want no logging, and NewMultiObserver leaves it out.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(context.Context, Event) {}
