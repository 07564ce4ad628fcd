package pipeline

import (
	"time"

	"newsletter-agent/pubsub"
)

// Event is the payload published on the run broker. Stage is empty for
// run level events.
type Event struct {
	RunID    string
	Stage    string
	Agent    string
	Text     string
	Err      string
	Duration time.Duration
	Time     time.Time
}

// Broker carries pipeline events to the TUI and the debug printer.
type Broker = pubsub.Broker[Event]

// NewBroker creates a broker for pipeline events.
func NewBroker() *Broker {
	return pubsub.NewBroker[Event]()
}

type publisher struct {
	broker *Broker
	runID  string
}

func (p publisher) publish(t pubsub.EventType, ev Event) {
	if p.broker == nil {
		return
	}
	ev.RunID = p.runID
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	p.broker.Publish(t, ev)
}
