package dispatch

import (
	"context"
	"errors"
	"fmt"
)

const (
	logMsgCommandValidationFailed = "command validation failed"
	logMsgHandlerReturnedNoOp     = "handler returned no response, dispatch is a no-op"
	logMsgEventsAppended          = "domain events appended"
	logMsgAppendFailed            = "appending domain events failed"
	logMsgEventPublishFailed      = "publishing event failed, attempting remaining events"
	logMsgDispatchCompleted       = "dispatch completed"
	logAttrCommandType            = "command_type"
	logAttrCommandID              = "command_id"
	logAttrAggregateType          = "aggregate_type"
	logAttrAggregateID            = "aggregate_id"
	logAttrEventType              = "event_type"
	logAttrEventCount             = "event_count"
	logAttrHandlerKind            = "handler_kind"
	logAttrError                  = "error"
)

// Dispatcher is the single entry point that executes one command to
// completion: validate, resolve, handle, persist domain events, publish.
//
// It performs a strictly sequential pipeline per invocation and holds no
// locks; it is safe for concurrent use as long as its collaborators are.
type Dispatcher struct {
	registry          *HandlerRegistry
	validator         Validator
	publisher         Publisher
	store             Store
	materializer      Materializer
	logger            Logger
	validateByDefault bool
	publishByDefault  bool
}

// NewDispatcher creates a Dispatcher over the given registry with optional
// configuration. Without options the Dispatcher does not validate and does
// publish produced events (a Publisher must then be configured before the
// first event-producing dispatch).
func NewDispatcher(registry *HandlerRegistry, options ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrNilHandlerRegistry
	}

	dispatcher := &Dispatcher{
		registry:          registry,
		materializer:      concreteMaterializer{},
		validateByDefault: false,
		publishByDefault:  true,
	}

	for _, option := range options {
		if err := option(dispatcher); err != nil {
			return nil, err
		}
	}

	return dispatcher, nil
}

// Send executes the command to completion and discards the response's result.
//
// It fails with ErrNilCommand for a nil command, a *ValidationError when
// validation rejects the command, ErrNoHandlerRegistered for missing wiring,
// and propagates handler, store and publisher failures unchanged. Persistence
// of a domain command's events always happens before any publish attempt.
func (d *Dispatcher) Send(ctx context.Context, command Command) error {
	_, err := d.dispatch(ctx, command)

	return err
}

// SendAsync executes the command on its own goroutine and delivers the
// outcome on the returned channel. The pipeline and its semantics are
// identical to Send; cancellation of ctx is observed by the collaborator
// calls between steps, never mid-step.
func (d *Dispatcher) SendAsync(ctx context.Context, command Command) <-chan error {
	outcome := make(chan error, 1)

	go func() {
		defer close(outcome)

		_, err := d.dispatch(ctx, command)
		outcome <- err
	}()

	return outcome
}

// AsyncResult carries the outcome of an asynchronous result-returning dispatch.
type AsyncResult[TResult any] struct {
	Result TResult
	Err    error
}

// SendAndReturn executes the command to completion and projects the
// response's result to TResult. It returns the zero value of TResult when the
// handler returned no response or no result, and ErrUnexpectedResultType when
// the result cannot be projected.
func SendAndReturn[TResult any](ctx context.Context, dispatcher *Dispatcher, command Command) (TResult, error) {
	response, err := dispatcher.dispatch(ctx, command)
	if err != nil {
		var zero TResult
		return zero, err
	}

	return projectResult[TResult](response)
}

// SendAndReturnAsync executes the command on its own goroutine and delivers
// the projected result on the returned channel, with semantics identical to
// SendAndReturn.
func SendAndReturnAsync[TResult any](ctx context.Context, dispatcher *Dispatcher, command Command) <-chan AsyncResult[TResult] {
	outcome := make(chan AsyncResult[TResult], 1)

	go func() {
		defer close(outcome)

		result, err := SendAndReturn[TResult](ctx, dispatcher, command)
		outcome <- AsyncResult[TResult]{Result: result, Err: err}
	}()

	return outcome
}

func projectResult[TResult any](response *CommandResponse) (TResult, error) {
	var zero TResult

	if response == nil || response.Result == nil {
		return zero, nil
	}

	result, ok := response.Result.(TResult)
	if !ok {
		return zero, errors.Join(ErrUnexpectedResultType, fmt.Errorf("got %T", response.Result))
	}

	return result, nil
}

// dispatch is the one pipeline behind all four call shapes.
func (d *Dispatcher) dispatch(ctx context.Context, command Command) (*CommandResponse, error) {
	if command == nil {
		return nil, ErrNilCommand
	}

	if err := d.validateIfEnabled(ctx, command); err != nil {
		return nil, err
	}

	kind, err := d.registry.resolveKind(command.CommandType())
	if err != nil {
		return nil, err
	}

	var response *CommandResponse

	switch kind {
	case domainHandlerKind:
		response, err = d.dispatchDomain(ctx, command)

	default:
		response, err = d.dispatchPlain(ctx, command)
	}

	if err != nil {
		return nil, err
	}

	d.logDebug(
		logMsgDispatchCompleted,
		logAttrCommandType, command.CommandType(),
		logAttrCommandID, command.CommandID().String(),
		logAttrHandlerKind, kind.String(),
	)

	return response, nil
}

// dispatchPlain executes a non-domain command: handle, then publish.
func (d *Dispatcher) dispatchPlain(ctx context.Context, command Command) (*CommandResponse, error) {
	handler, err := d.registry.resolvePlainHandler(command.CommandType())
	if err != nil {
		return nil, err
	}

	response, err := handler.Handle(ctx, command)
	if err != nil {
		return nil, err
	}

	if response == nil {
		d.logDebug(logMsgHandlerReturnedNoOp, logAttrCommandType, command.CommandType())
		return nil, nil
	}

	if err := d.publishIfEnabled(ctx, command, response.Events); err != nil {
		return nil, err
	}

	return response, nil
}

// dispatchDomain executes a domain command: handle, stamp the produced events
// in order, append the whole sequence atomically, then publish. Append always
// happens before the first publish attempt.
func (d *Dispatcher) dispatchDomain(ctx context.Context, command Command) (*CommandResponse, error) {
	domainCommand, ok := command.(DomainCommand)
	if !ok {
		return nil, errors.Join(ErrNotADomainCommand, fmt.Errorf("command type %q is registered with a domain handler but %T does not implement DomainCommand", command.CommandType(), command))
	}

	handler, err := d.registry.resolveDomainHandler(domainCommand.CommandType())
	if err != nil {
		return nil, err
	}

	response, err := handler.Handle(ctx, domainCommand)
	if err != nil {
		return nil, err
	}

	if response == nil {
		d.logDebug(logMsgHandlerReturnedNoOp, logAttrCommandType, domainCommand.CommandType())
		return nil, nil
	}

	if len(response.Events) > 0 {
		if err := d.persistDomainEvents(ctx, domainCommand, response.Events); err != nil {
			return nil, err
		}
	}

	if err := d.publishIfEnabled(ctx, domainCommand, response.Events); err != nil {
		return nil, err
	}

	return response, nil
}

// persistDomainEvents stamps every produced event with the originating
// command's identity, in order, and hands the entire ordered sequence to the
// Store as one atomic append.
func (d *Dispatcher) persistDomainEvents(ctx context.Context, command DomainCommand, events Events) error {
	if d.store == nil {
		return ErrNoDomainStoreConfigured
	}

	domainEvents := make([]DomainEvent, 0, len(events))

	for _, event := range events {
		domainEvent, ok := event.(DomainEvent)
		if !ok {
			return errors.Join(ErrNotADomainEvent, fmt.Errorf("event type %q (%T) produced by domain command %q", event.EventType(), event, command.CommandType()))
		}

		if err := ApplyCommand(domainEvent, command); err != nil {
			return err
		}

		domainEvents = append(domainEvents, domainEvent)
	}

	appendErr := d.store.Append(ctx, command.AggregateType(), command.AggregateRootID(), command, domainEvents)
	if appendErr != nil {
		d.logError(
			logMsgAppendFailed,
			logAttrError, appendErr.Error(),
			logAttrAggregateType, command.AggregateType(),
			logAttrAggregateID, command.AggregateRootID().String(),
			logAttrEventCount, len(domainEvents),
		)

		if errors.Is(appendErr, ErrConcurrencyConflict) {
			return appendErr
		}

		return errors.Join(ErrAppendingEventsFailed, appendErr)
	}

	d.logInfo(
		logMsgEventsAppended,
		logAttrAggregateType, command.AggregateType(),
		logAttrAggregateID, command.AggregateRootID().String(),
		logAttrEventCount, len(domainEvents),
	)

	return nil
}

// publishIfEnabled materializes and publishes every produced event, one
// publish call per event, in the response's event order. A failed publish
// does not prevent attempting the remaining events; all failures are joined
// and returned after the last attempt.
func (d *Dispatcher) publishIfEnabled(ctx context.Context, command Command, events Events) error {
	if !d.shouldPublish(command) || len(events) == 0 {
		return nil
	}

	if d.publisher == nil {
		return ErrNoPublisherConfigured
	}

	var publishErrs []error

	for _, event := range events {
		concreteEvent, materializeErr := d.materializer.Materialize(event)
		if materializeErr != nil {
			publishErrs = append(publishErrs, errors.Join(ErrMaterializingEventFailed, materializeErr))
			continue
		}

		if publishErr := d.publisher.Publish(ctx, concreteEvent); publishErr != nil {
			d.logWarn(
				logMsgEventPublishFailed,
				logAttrError, publishErr.Error(),
				logAttrEventType, concreteEvent.EventType(),
				logAttrCommandType, command.CommandType(),
			)

			publishErrs = append(publishErrs, errors.Join(ErrPublishingEventFailed, publishErr))
		}
	}

	return errors.Join(publishErrs...)
}

func (d *Dispatcher) validateIfEnabled(ctx context.Context, command Command) error {
	if !d.shouldValidate(command) {
		return nil
	}

	if d.validator == nil {
		return ErrNoValidatorConfigured
	}

	if err := d.validator.Validate(ctx, command); err != nil {
		d.logInfo(
			logMsgCommandValidationFailed,
			logAttrCommandType, command.CommandType(),
			logAttrCommandID, command.CommandID().String(),
			logAttrError, err.Error(),
		)

		return err
	}

	return nil
}

func (d *Dispatcher) shouldValidate(command Command) bool {
	if enabled, ok := command.ValidationOverride(); ok {
		return enabled
	}

	return d.validateByDefault
}

func (d *Dispatcher) shouldPublish(command Command) bool {
	if enabled, ok := command.PublishingOverride(); ok {
		return enabled
	}

	return d.publishByDefault
}

func (d *Dispatcher) logDebug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}

func (d *Dispatcher) logInfo(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}

func (d *Dispatcher) logWarn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}

func (d *Dispatcher) logError(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Error(msg, args...)
	}
}
