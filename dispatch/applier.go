package dispatch

// ApplyCommand stamps a raw domain event with the identity of its originating
// domain command: aggregate root id, aggregate type, causation id (the
// command id) and correlation id.
//
// The Dispatcher calls it once per event, in the response's event order,
// before the event sequence is handed to the Store. It is not idempotent:
// a second call for the same event fails with ErrEventAlreadyStamped.
func ApplyCommand(event DomainEvent, command DomainCommand) error {
	return event.stampWith(command)
}
