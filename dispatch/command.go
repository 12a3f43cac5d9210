package dispatch

import (
	"github.com/google/uuid"
)

// CommandTypeString is a type alias for string, representing the type identifier of a command.
type CommandTypeString = string

// AggregateTypeString is a type alias for string, representing the type of an aggregate.
type AggregateTypeString = string

// AggregateVersionUint is a type alias for uint, representing the version of an aggregate.
type AggregateVersionUint = uint

// Command represents the intent to change state, dispatched once.
//
// Commands are immutable inputs to a single dispatch and are exclusively
// owned by the dispatch call that created them. The per-instance validation
// and publishing overrides are tri-state: unset means the Dispatcher's
// process-wide default applies.
type Command interface {
	CommandType() CommandTypeString
	CommandID() uuid.UUID
	CorrelationID() uuid.UUID
	ValidationOverride() (enabled bool, ok bool)
	PublishingOverride() (enabled bool, ok bool)
}

// DomainCommand represents a command bound to exactly one aggregate instance
// and one aggregate type. The aggregate type is declared statically by the
// concrete command type, the expected version is the optimistic-concurrency
// marker the Store checks on append.
type DomainCommand interface {
	Command
	AggregateType() AggregateTypeString
	AggregateRootID() uuid.UUID
	ExpectedVersion() AggregateVersionUint
}

// CommandOption defines a functional option for configuring a CommandBase.
type CommandOption func(*CommandBase)

// WithValidation overrides the Dispatcher's validation default for this command instance.
func WithValidation(enabled bool) CommandOption {
	return func(c *CommandBase) {
		c.validate = &enabled
	}
}

// WithEventPublishing overrides the Dispatcher's event-publishing default for this command instance.
func WithEventPublishing(enabled bool) CommandOption {
	return func(c *CommandBase) {
		c.publish = &enabled
	}
}

// WithCorrelationID sets the correlation id for this command instance,
// typically carried over from an upstream message. Defaults to the command id.
func WithCorrelationID(correlationID uuid.UUID) CommandOption {
	return func(c *CommandBase) {
		c.correlationID = correlationID
	}
}

// CommandBase supplies the identity and override plumbing every command
// needs. Concrete command types embed it and add CommandType plus their
// payload fields.
//
// It should only be constructed with BuildCommandBase so that the command id
// is always populated.
type CommandBase struct {
	commandID     uuid.UUID
	correlationID uuid.UUID
	validate      *bool
	publish       *bool
}

// BuildCommandBase is a factory method for CommandBase.
func BuildCommandBase(options ...CommandOption) CommandBase {
	commandID := uuid.New()

	base := CommandBase{
		commandID:     commandID,
		correlationID: commandID,
	}

	for _, option := range options {
		option(&base)
	}

	return base
}

// CommandID returns the unique id of this command instance.
func (c CommandBase) CommandID() uuid.UUID {
	return c.commandID
}

// CorrelationID returns the correlation id of this command instance.
func (c CommandBase) CorrelationID() uuid.UUID {
	return c.correlationID
}

// ValidationOverride reports the per-instance validation override.
// ok is false when the override is unset and the process-wide default applies.
func (c CommandBase) ValidationOverride() (enabled bool, ok bool) {
	if c.validate == nil {
		return false, false
	}

	return *c.validate, true
}

// PublishingOverride reports the per-instance event-publishing override.
// ok is false when the override is unset and the process-wide default applies.
func (c CommandBase) PublishingOverride() (enabled bool, ok bool) {
	if c.publish == nil {
		return false, false
	}

	return *c.publish, true
}

// DomainCommandBase supplies the aggregate binding for domain commands.
// Concrete domain command types embed it and declare their aggregate type
// statically via AggregateType.
type DomainCommandBase struct {
	CommandBase
	aggregateRootID uuid.UUID
	expectedVersion AggregateVersionUint
}

// BuildDomainCommandBase is a factory method for DomainCommandBase.
//
// expectedVersion is the aggregate version the caller observed when it
// decided to issue the command; zero targets a not-yet-existing aggregate.
func BuildDomainCommandBase(
	aggregateRootID uuid.UUID,
	expectedVersion AggregateVersionUint,
	options ...CommandOption,
) DomainCommandBase {

	return DomainCommandBase{
		CommandBase:     BuildCommandBase(options...),
		aggregateRootID: aggregateRootID,
		expectedVersion: expectedVersion,
	}
}

// AggregateRootID returns the id of the aggregate instance this command targets.
func (c DomainCommandBase) AggregateRootID() uuid.UUID {
	return c.aggregateRootID
}

// ExpectedVersion returns the aggregate version this command was issued against.
func (c DomainCommandBase) ExpectedVersion() AggregateVersionUint {
	return c.expectedVersion
}
