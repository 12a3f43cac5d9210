package dispatch

import (
	"context"

	"github.com/google/uuid"
)

// Validator checks a command against its rules before the handler executes.
// The rule language is owned by the implementation; the Dispatcher only
// requires that rule failures are reported as a *ValidationError.
type Validator interface {
	Validate(ctx context.Context, command Command) error
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(ctx context.Context, command Command) error

// Validate calls the wrapped function.
func (f ValidatorFunc) Validate(ctx context.Context, command Command) error {
	return f(ctx, command)
}

// Publisher hands a materialized event to external subscribers. The
// Dispatcher calls it once per event, in event order; failure policy beyond
// that is owned by the implementation.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublisherFunc adapts a plain function to the Publisher interface.
type PublisherFunc func(ctx context.Context, event Event) error

// Publish calls the wrapped function.
func (f PublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Store durably appends stamped domain events as the next entries of an
// aggregate's history, using optimistic concurrency based on the expected
// version the originating command carries.
//
// The whole event sequence is one atomic append: either every event is
// durable or the append fails, with ErrConcurrencyConflict when the
// aggregate's version has advanced since the command was issued. The Store
// exclusively owns durable aggregate state; the Dispatcher never reads it back.
type Store interface {
	Append(
		ctx context.Context,
		aggregateType AggregateTypeString,
		aggregateRootID uuid.UUID,
		command DomainCommand,
		events []DomainEvent,
	) error
}

// Logger interface for dispatch pipeline logging, operational information,
// warnings, and error reporting. All Dispatcher log calls are nil-safe; a
// Dispatcher without a logger is silent.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
