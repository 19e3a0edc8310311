package core

import "sync"

// EventType identifies a class of published event.
type EventType string

const (
	// LightStateChangedEvent fires after a state-mutating command succeeds.
	LightStateChangedEvent EventType = "LightStateChanged"
	// EffectChangedEvent fires when a disco job starts or stops.
	EffectChangedEvent EventType = "EffectChanged"
	// PatternChangedEvent fires when a Lua pattern starts or finishes.
	PatternChangedEvent EventType = "PatternChanged"
	// ScheduleListChangedEvent fires after a schedule is added or removed.
	ScheduleListChangedEvent EventType = "ScheduleListChanged"
	// PatternListChangedEvent fires after a pattern file is saved or deleted.
	PatternListChangedEvent EventType = "PatternListChanged"
)

// Event is the envelope for all internal notifications.
type Event struct {
	Type    EventType
	Payload interface{}
}

// Subscriber is a channel that receives events.
type Subscriber chan Event

// EventBus is the in-process pub/sub fabric between the interpreter, the
// effect engine and the transports.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
	}
}

// Subscribe returns a buffered channel receiving events of the given types.
func (eb *EventBus) Subscribe(eventTypes ...EventType) Subscriber {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(Subscriber, 64)
	for _, t := range eventTypes {
		eb.subscribers[t] = append(eb.subscribers[t], ch)
	}
	return ch
}

// Unsubscribe detaches a subscriber channel from the given event types.
func (eb *EventBus) Unsubscribe(ch Subscriber, eventTypes ...EventType) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, t := range eventTypes {
		subs := eb.subscribers[t]
		for i, sub := range subs {
			if sub == ch {
				eb.subscribers[t] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers an event to all subscribers of its type. A subscriber
// whose buffer is full is skipped rather than blocking the publisher.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, sub := range eb.subscribers[event.Type] {
		select {
		case sub <- event:
		default:
		}
	}
}
