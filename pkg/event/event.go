// pkg/event/event.go
package event

import (
	"sync"

	"github.com/opd-ai/go-collide/pkg/physics"
)

// Type represents the type of event
type Type string

// Collision world event types
const (
	// CollisionStarted fires on the first step a pair is found colliding
	CollisionStarted Type = "collision_started"
	// CollisionEnded fires on the first step a colliding pair separates
	// or one of its bodies is removed
	CollisionEnded Type = "collision_ended"
	// SweepBlocked fires when a swept move stops at an obstacle
	SweepBlocked Type = "sweep_blocked"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// SubscriptionID identifies a handler registered with Subscribe
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]subscription
	nextID   SubscriptionID
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscription),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes the handler registered under id. It reports whether
// a handler was removed.
func (b *Bus) Unsubscribe(eventType Type, id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			// Publish may still hold the old slice, so never shift it in place
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// CollisionEvent reports a change in contact between two bodies
type CollisionEvent struct {
	BaseEvent
	BodyA uint64
	BodyB uint64
	// Normal and Overlap describe the contact when it started; they are
	// zero for CollisionEnded.
	Normal  physics.Vector2D
	Overlap float64
}

// NewCollisionEvent creates a new collision event
func NewCollisionEvent(eventType Type, source interface{}, bodyA, bodyB uint64) *CollisionEvent {
	return &CollisionEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		BodyA: bodyA,
		BodyB: bodyB,
	}
}

// SweepEvent reports a swept move stopped by an obstacle
type SweepEvent struct {
	BaseEvent
	BodyID uint64
	// Blocker is the ID of the body that stopped the move
	Blocker uint64
	Time    float64
	Normal  physics.Vector2D
}

// NewSweepEvent creates a new sweep event
func NewSweepEvent(source interface{}, bodyID, blocker uint64, time float64, normal physics.Vector2D) *SweepEvent {
	return &SweepEvent{
		BaseEvent: BaseEvent{
			EventType: SweepBlocked,
			Source:    source,
		},
		BodyID:  bodyID,
		Blocker: blocker,
		Time:    time,
		Normal:  normal,
	}
}
