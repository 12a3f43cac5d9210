package dispatch

import (
	"errors"
	"fmt"
)

// handlerKind marks which of the two handler kinds a command type resolves to.
type handlerKind int

const (
	plainHandlerKind handlerKind = iota
	domainHandlerKind
)

func (k handlerKind) String() string {
	switch k {
	case plainHandlerKind:
		return "plain"
	case domainHandlerKind:
		return "domain"
	default:
		return "unknown"
	}
}

// HandlerRegistry maps command types to their single responsible handler,
// keyed per handler kind (plain vs. domain).
//
// The registry is populated at startup and read-only afterwards; it is not
// safe for registration concurrent with dispatching. Duplicate or ambiguous
// registrations fail immediately instead of surfacing per dispatch.
type HandlerRegistry struct {
	plainHandlers  map[CommandTypeString]Handler
	domainHandlers map[CommandTypeString]DomainHandler
}

// NewHandlerRegistry creates an empty HandlerRegistry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		plainHandlers:  make(map[CommandTypeString]Handler),
		domainHandlers: make(map[CommandTypeString]DomainHandler),
	}
}

// RegisterHandler registers the handler for a plain command type.
// Registering a command type twice, for either kind, fails with
// ErrHandlerAlreadyRegistered.
func (r *HandlerRegistry) RegisterHandler(commandType CommandTypeString, handler Handler) error {
	if commandType == "" {
		return ErrEmptyCommandType
	}

	if handler == nil {
		return ErrNilHandler
	}

	if err := r.ensureUnregistered(commandType); err != nil {
		return err
	}

	r.plainHandlers[commandType] = handler

	return nil
}

// RegisterDomainHandler registers the handler for a domain command type.
// Registering a command type twice, for either kind, fails with
// ErrHandlerAlreadyRegistered.
func (r *HandlerRegistry) RegisterDomainHandler(commandType CommandTypeString, handler DomainHandler) error {
	if commandType == "" {
		return ErrEmptyCommandType
	}

	if handler == nil {
		return ErrNilHandler
	}

	if err := r.ensureUnregistered(commandType); err != nil {
		return err
	}

	r.domainHandlers[commandType] = handler

	return nil
}

func (r *HandlerRegistry) ensureUnregistered(commandType CommandTypeString) error {
	if _, exists := r.plainHandlers[commandType]; exists {
		return errors.Join(ErrHandlerAlreadyRegistered, fmt.Errorf("command type %q, kind %s", commandType, plainHandlerKind))
	}

	if _, exists := r.domainHandlers[commandType]; exists {
		return errors.Join(ErrHandlerAlreadyRegistered, fmt.Errorf("command type %q, kind %s", commandType, domainHandlerKind))
	}

	return nil
}

// resolveKind reports which handler kind the command type was registered with.
func (r *HandlerRegistry) resolveKind(commandType CommandTypeString) (handlerKind, error) {
	if _, exists := r.domainHandlers[commandType]; exists {
		return domainHandlerKind, nil
	}

	if _, exists := r.plainHandlers[commandType]; exists {
		return plainHandlerKind, nil
	}

	return 0, errors.Join(ErrNoHandlerRegistered, fmt.Errorf("command type %q", commandType))
}

func (r *HandlerRegistry) resolvePlainHandler(commandType CommandTypeString) (Handler, error) {
	handler, exists := r.plainHandlers[commandType]
	if !exists {
		return nil, errors.Join(ErrNoHandlerRegistered, fmt.Errorf("command type %q, kind %s", commandType, plainHandlerKind))
	}

	return handler, nil
}

func (r *HandlerRegistry) resolveDomainHandler(commandType CommandTypeString) (DomainHandler, error) {
	handler, exists := r.domainHandlers[commandType]
	if !exists {
		return nil, errors.Join(ErrNoHandlerRegistered, fmt.Errorf("command type %q, kind %s", commandType, domainHandlerKind))
	}

	return handler, nil
}
