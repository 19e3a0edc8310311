package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesOnlyRequestedTypes(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe(EffectChangedEvent)

	bus.Publish(Event{Type: LightStateChangedEvent})
	bus.Publish(Event{Type: EffectChangedEvent, Payload: "p"})

	select {
	case ev := <-sub:
		assert.Equal(t, EffectChangedEvent, ev.Type)
		assert.Equal(t, "p", ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case ev := <-sub:
		t.Fatalf("unexpected event: %+v", ev)
	default:
	}
}

func TestSubscribeMultipleTypes(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe(EffectChangedEvent, PatternChangedEvent)

	bus.Publish(Event{Type: EffectChangedEvent})
	bus.Publish(Event{Type: PatternChangedEvent})

	require.Equal(t, EffectChangedEvent, (<-sub).Type)
	require.Equal(t, PatternChangedEvent, (<-sub).Type)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe(EffectChangedEvent)

	bus.Unsubscribe(sub, EffectChangedEvent)
	bus.Publish(Event{Type: EffectChangedEvent})

	select {
	case ev := <-sub:
		t.Fatalf("unexpected event after unsubscribe: %+v", ev)
	default:
	}
}

func TestPublishSkipsFullSubscriber(t *testing.T) {
	bus := NewEventBus()
	sub := bus.Subscribe(EffectChangedEvent)

	// Overfill the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			bus.Publish(Event{Type: EffectChangedEvent, Payload: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a full subscriber")
	}
	assert.Len(t, sub, cap(sub))
}

func TestFanOut(t *testing.T) {
	bus := NewEventBus()
	a := bus.Subscribe(ScheduleListChangedEvent)
	b := bus.Subscribe(ScheduleListChangedEvent)

	bus.Publish(Event{Type: ScheduleListChangedEvent})

	assert.Len(t, a, 1)
	assert.Len(t, b, 1)
}
