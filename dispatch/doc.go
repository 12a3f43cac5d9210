// Package dispatch provides the command-dispatch and event-sourcing
// persistence core of kledex-go.
//
// A caller submits a Command; the Dispatcher resolves the single handler
// registered for it, optionally validates the command, executes the handler
// to obtain a CommandResponse (a result plus an ordered sequence of events),
// persists the events for domain commands through a Store under optimistic
// concurrency, and finally publishes them through a Publisher.
//
// Key types:
//   - Command / DomainCommand: intents, built on CommandBase / DomainCommandBase
//   - Event / DomainEvent: outcome facts, domain events embed *DomainEventBase
//   - CommandResponse: handler output, nil means "nothing happened"
//   - HandlerRegistry: startup-time mapping from command type to handler
//   - Dispatcher: the pipeline, blocking and asynchronous call shapes
//
// Common usage pattern:
//
//	registry := dispatch.NewHandlerRegistry()
//	err := registry.RegisterDomainHandler(
//		banking.OpenAccountCommandType,
//		dispatch.TypedDomainHandler(openAccountHandler.Handle),
//	)
//
//	dispatcher, err := dispatch.NewDispatcher(
//		registry,
//		dispatch.WithDomainStore(store),
//		dispatch.WithPublisher(publisher),
//	)
//
//	err = dispatcher.Send(ctx, banking.BuildOpenAccount(accountID, holder))
//
// For a single dispatch the pipeline is strictly sequential: persistence of
// domain events always happens before any of them is published, and event
// order is preserved from the handler through the store to the publisher.
// Across concurrent dispatches targeting the same aggregate the Store's
// optimistic-concurrency check is the only conflict arbiter; the Dispatcher
// holds no locks.
package dispatch
