package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerFlow(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := broker.Subscribe(ctx)
	broker.Publish(StartedEvent, "ContentWritingAgent")

	select {
	case ev := <-events:
		assert.Equal(t, StartedEvent, ev.Type)
		assert.Equal(t, "ContentWritingAgent", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestAutoUnsubscribe(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	events := broker.Subscribe(ctx)
	require.Equal(t, 1, broker.GetSubscriberCount())

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Equal(t, 0, broker.GetSubscriberCount())
}

func TestNonBlockingPublish(t *testing.T) {
	broker := NewBrokerWithOptions[int](4)
	defer broker.Shutdown()

	events := broker.Subscribe(context.Background())
	for i := 0; i < 100; i++ {
		broker.Publish(UpdatedEvent, i)
	}

	assert.Len(t, events, 4)
	first := <-events
	assert.Equal(t, 0, first.Payload)
}

func TestBrokerShutdown(t *testing.T) {
	broker := NewBroker[string]()
	events := broker.Subscribe(context.Background())

	broker.Shutdown()
	broker.Shutdown()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after shutdown")
	}

	late := broker.Subscribe(context.Background())
	_, ok := <-late
	assert.False(t, ok)

	broker.Publish(FinishedEvent, "ignored")
	assert.Equal(t, 0, broker.GetSubscriberCount())
}
