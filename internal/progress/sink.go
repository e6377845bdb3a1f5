package progress

import "context"

// Sink consumes progress events one at a time. Implementations must honor
// ctx deadlines; the hub invokes them from a single dispatch goroutine.
type Sink interface {
	Consume(ctx context.Context, evt Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Hub satisfies this interface so the
// crawler can stay agnostic about how events are buffered or delivered.
type Emitter interface {
	Emit(evt Event)
}
