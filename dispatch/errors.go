package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilCommand is returned when a nil command is sent to the Dispatcher.
	ErrNilCommand = errors.New("command must not be nil")

	// ErrNilHandlerRegistry is returned when a Dispatcher is created without a handler registry.
	ErrNilHandlerRegistry = errors.New("handler registry must not be nil")

	// ErrEmptyCommandType is returned when a handler is registered for an empty command type.
	ErrEmptyCommandType = errors.New("command type must not be empty")

	// ErrNilHandler is returned when a nil handler is registered.
	ErrNilHandler = errors.New("handler must not be nil")

	// ErrHandlerAlreadyRegistered is returned when a second handler is registered
	// for a command type, for either handler kind. Ambiguous wiring is a
	// registration-time defect, not a dispatch-time condition.
	ErrHandlerAlreadyRegistered = errors.New("a handler is already registered for this command type")

	// ErrNoHandlerRegistered is returned when no handler is registered for the
	// dispatched command's type. This signals a wiring defect.
	ErrNoHandlerRegistered = errors.New("no handler registered for this command type")

	// ErrNotADomainCommand is returned when a command type registered with a
	// domain handler is dispatched with a command that does not implement DomainCommand.
	ErrNotADomainCommand = errors.New("command does not implement DomainCommand")

	// ErrNoValidatorConfigured is returned when validation is enabled for a
	// dispatch but no Validator was configured.
	ErrNoValidatorConfigured = errors.New("validation is enabled but no validator is configured")

	// ErrNoDomainStoreConfigured is returned when a domain command produces
	// events but no Store was configured.
	ErrNoDomainStoreConfigured = errors.New("domain command dispatched but no domain store is configured")

	// ErrNoPublisherConfigured is returned when event publishing is enabled for
	// a dispatch but no Publisher was configured.
	ErrNoPublisherConfigured = errors.New("event publishing is enabled but no publisher is configured")

	// ErrNotADomainEvent is returned when a domain command's handler produces
	// an event that does not implement DomainEvent and can therefore not be
	// appended to the aggregate's history.
	ErrNotADomainEvent = errors.New("event does not implement DomainEvent")

	// ErrEventAlreadyStamped is returned when ApplyCommand is called twice for the same event.
	ErrEventAlreadyStamped = errors.New("domain event is already stamped with its originating command")

	// ErrUnstampedEvent is returned by Store implementations that receive a
	// domain event which was not stamped with its originating command.
	ErrUnstampedEvent = errors.New("domain event is not stamped with its originating command")

	// ErrAppendingEventsFailed is returned when the Store fails to append the
	// produced events. The events have not been published.
	ErrAppendingEventsFailed = errors.New("appending domain events failed")

	// ErrConcurrencyConflict is returned when the aggregate's version has
	// advanced since the command was issued. Callers issuing concurrent
	// commands against the same aggregate must expect and handle it.
	ErrConcurrencyConflict = errors.New("concurrency conflict, aggregate version has advanced")

	// ErrPublishingEventFailed is returned (possibly joined for several events)
	// when publishing a materialized event failed. Remaining events were still attempted.
	ErrPublishingEventFailed = errors.New("publishing event failed")

	// ErrMaterializingEventFailed is returned when an event could not be
	// converted into its concrete published form.
	ErrMaterializingEventFailed = errors.New("materializing event failed")

	// ErrUnexpectedCommandType is returned when a typed handler receives a
	// command of a different concrete type than it was registered for.
	ErrUnexpectedCommandType = errors.New("handler received an unexpected command type")

	// ErrUnexpectedResultType is returned by SendAndReturn when the handler's
	// result cannot be projected to the requested type.
	ErrUnexpectedResultType = errors.New("command response result has an unexpected type")
)

// Violation describes a single rule violation reported by a Validator.
type Violation struct {
	Field   string
	Message string
}

// ValidationError carries the rule violations that aborted a dispatch before
// the handler executed. It is recoverable by the caller.
type ValidationError struct {
	CommandType string
	Violations  []Violation
}

// BuildValidationError creates a ValidationError for the given command type.
func BuildValidationError(commandType string, violations ...Violation) *ValidationError {
	return &ValidationError{
		CommandType: commandType,
		Violations:  violations,
	}
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("validation failed for command %s", e.CommandType)
	}

	parts := make([]string, 0, len(e.Violations))
	for _, violation := range e.Violations {
		if violation.Field == "" {
			parts = append(parts, violation.Message)
			continue
		}
		parts = append(parts, violation.Field+": "+violation.Message)
	}

	return fmt.Sprintf("validation failed for command %s: %s", e.CommandType, strings.Join(parts, "; "))
}
