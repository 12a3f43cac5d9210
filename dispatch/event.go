package dispatch

import (
	"github.com/google/uuid"
)

// EventTypeString is a type alias for string, representing the type identifier of an event.
type EventTypeString = string

// Events is an alias type for a slice of Event. Order is significant: it is
// replay and publish order and is preserved end to end.
type Events = []Event

// Event represents an outcome fact produced by a command handler.
type Event interface {
	EventType() EventTypeString
}

// DomainEvent represents an event that belongs to an aggregate's history.
//
// A domain event starts unstamped; the Dispatcher stamps it with the identity
// and correlation metadata of its originating domain command before it is
// handed to the Store. It is never persisted or published unstamped.
//
// Concrete domain event types must embed DomainEventBase; the unexported
// stamping method keeps the stamping capability inside this package.
type DomainEvent interface {
	Event
	AggregateRootID() uuid.UUID
	AggregateType() AggregateTypeString
	CausationID() uuid.UUID
	CorrelationID() uuid.UUID
	Stamped() bool

	stampWith(command DomainCommand) error
}

// DomainEventBase supplies the stamped identity plumbing for domain events.
// The zero value is an unstamped base, ready to be embedded into a concrete
// event type.
type DomainEventBase struct {
	aggregateRootID uuid.UUID
	aggregateType   AggregateTypeString
	causationID     uuid.UUID
	correlationID   uuid.UUID
	stamped         bool
}

// AggregateRootID returns the id of the aggregate this event belongs to.
// Zero until the event is stamped.
func (b *DomainEventBase) AggregateRootID() uuid.UUID {
	return b.aggregateRootID
}

// AggregateType returns the type of the aggregate this event belongs to.
// Empty until the event is stamped.
func (b *DomainEventBase) AggregateType() AggregateTypeString {
	return b.aggregateType
}

// CausationID returns the id of the command that produced this event.
func (b *DomainEventBase) CausationID() uuid.UUID {
	return b.causationID
}

// CorrelationID returns the correlation id carried over from the originating command.
func (b *DomainEventBase) CorrelationID() uuid.UUID {
	return b.correlationID
}

// Stamped reports whether this event carries its originating command's identity.
func (b *DomainEventBase) Stamped() bool {
	return b.stamped
}

func (b *DomainEventBase) stampWith(command DomainCommand) error {
	if b.stamped {
		return ErrEventAlreadyStamped
	}

	b.aggregateRootID = command.AggregateRootID()
	b.aggregateType = command.AggregateType()
	b.causationID = command.CommandID()
	b.correlationID = command.CorrelationID()
	b.stamped = true

	return nil
}

// Materializable is the capability of an event to convert itself into the
// concrete type external subscribers expect. Handlers may produce events in a
// base or internal form; the capability is resolved through static dispatch,
// no runtime type inspection beyond the single capability check.
type Materializable interface {
	ToConcrete() Event
}

// Materializer converts an event in its runtime form into the concrete event
// instance to publish. Implementations must be pure and deterministic.
type Materializer interface {
	Materialize(event Event) (Event, error)
}

// concreteMaterializer is the default Materializer: it resolves the
// Materializable capability and falls back to the event itself.
type concreteMaterializer struct{}

func (concreteMaterializer) Materialize(event Event) (Event, error) {
	if materializable, ok := event.(Materializable); ok {
		return materializable.ToConcrete(), nil
	}

	return event, nil
}
