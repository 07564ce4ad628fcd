package pubsub

import "context"

const (
	// StartedEvent marks the start of a run or stage.
	StartedEvent EventType = "started"
	// UpdatedEvent carries progress inside a running stage.
	UpdatedEvent EventType = "updated"
	// SkippedEvent marks a stage the gate decided not to run.
	SkippedEvent EventType = "skipped"
	// FinishedEvent marks successful completion.
	FinishedEvent EventType = "finished"
	// FailedEvent marks completion with an error.
	FailedEvent EventType = "failed"
	// InterruptedEvent marks a stage or run waiting for a reviewer.
	InterruptedEvent EventType = "interrupted"
)

// Subscriber hands out event channels that close when the context ends.
type Subscriber[T any] interface {
	Subscribe(context.Context) <-chan Event[T]
}

type (
	// EventType identifies the kind of event.
	EventType string

	// Event is a typed notification with its payload.
	Event[T any] struct {
		Type    EventType
		Payload T
	}

	// Publisher fans events out to subscribers.
	Publisher[T any] interface {
		Publish(EventType, T)
	}
)
