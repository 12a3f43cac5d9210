package dispatch

import (
	"context"
	"errors"
	"fmt"
)

// Handler executes a plain (non-domain) command and returns the response, or
// nil when the command turned out to be a no-op.
type Handler interface {
	Handle(ctx context.Context, command Command) (*CommandResponse, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, command Command) (*CommandResponse, error)

// Handle calls the wrapped function.
func (f HandlerFunc) Handle(ctx context.Context, command Command) (*CommandResponse, error) {
	return f(ctx, command)
}

// DomainHandler executes a domain command and returns the response whose
// events will be appended to the target aggregate's history.
type DomainHandler interface {
	Handle(ctx context.Context, command DomainCommand) (*CommandResponse, error)
}

// DomainHandlerFunc adapts a plain function to the DomainHandler interface.
type DomainHandlerFunc func(ctx context.Context, command DomainCommand) (*CommandResponse, error)

// Handle calls the wrapped function.
func (f DomainHandlerFunc) Handle(ctx context.Context, command DomainCommand) (*CommandResponse, error) {
	return f(ctx, command)
}

// TypedHandler bridges a type-safe handler function for a concrete command
// type with the registry's Handler storage. The wrapper fails with
// ErrUnexpectedCommandType if the registry ever routes a different concrete
// type to it, which indicates a wiring defect.
func TypedHandler[C Command](fn func(ctx context.Context, command C) (*CommandResponse, error)) Handler {
	return HandlerFunc(func(ctx context.Context, command Command) (*CommandResponse, error) {
		typedCommand, ok := command.(C)
		if !ok {
			return nil, errors.Join(ErrUnexpectedCommandType, fmt.Errorf("got %T", command))
		}

		return fn(ctx, typedCommand)
	})
}

// TypedDomainHandler bridges a type-safe handler function for a concrete
// domain command type with the registry's DomainHandler storage.
func TypedDomainHandler[C DomainCommand](fn func(ctx context.Context, command C) (*CommandResponse, error)) DomainHandler {
	return DomainHandlerFunc(func(ctx context.Context, command DomainCommand) (*CommandResponse, error) {
		typedCommand, ok := command.(C)
		if !ok {
			return nil, errors.Join(ErrUnexpectedCommandType, fmt.Errorf("got %T", command))
		}

		return fn(ctx, typedCommand)
	})
}
