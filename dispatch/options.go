package dispatch

import "errors"

var (
	// ErrNilValidator is returned when a nil validator is provided to WithValidator.
	ErrNilValidator = errors.New("validator must not be nil")

	// ErrNilPublisher is returned when a nil publisher is provided to WithPublisher.
	ErrNilPublisher = errors.New("publisher must not be nil")

	// ErrNilStore is returned when a nil store is provided to WithDomainStore.
	ErrNilStore = errors.New("store must not be nil")

	// ErrNilMaterializer is returned when a nil materializer is provided to WithMaterializer.
	ErrNilMaterializer = errors.New("materializer must not be nil")
)

// Option defines a functional option for configuring a Dispatcher.
type Option func(*Dispatcher) error

// WithValidator sets the validator invoked for commands whose validation is
// enabled, per instance override or process-wide default.
func WithValidator(validator Validator) Option {
	return func(d *Dispatcher) error {
		if validator == nil {
			return ErrNilValidator
		}

		d.validator = validator

		return nil
	}
}

// WithPublisher sets the publisher that receives materialized events, one
// publish call per event, in event order.
func WithPublisher(publisher Publisher) Option {
	return func(d *Dispatcher) error {
		if publisher == nil {
			return ErrNilPublisher
		}

		d.publisher = publisher

		return nil
	}
}

// WithDomainStore sets the store that appends domain events to aggregate
// histories under optimistic concurrency.
func WithDomainStore(store Store) Option {
	return func(d *Dispatcher) error {
		if store == nil {
			return ErrNilStore
		}

		d.store = store

		return nil
	}
}

// WithMaterializer replaces the default materializer, which resolves the
// Materializable capability and otherwise publishes events as produced.
func WithMaterializer(materializer Materializer) Option {
	return func(d *Dispatcher) error {
		if materializer == nil {
			return ErrNilMaterializer
		}

		d.materializer = materializer

		return nil
	}
}

// WithLogger sets the logger for the Dispatcher.
//
// Debug level: per-dispatch flow (development use)
// Info level: appended event counts, validation rejections (production-safe)
// Warn level: publish failures for individual events
// Error level: store append failures.
func WithLogger(logger Logger) Option {
	return func(d *Dispatcher) error {
		d.logger = logger
		return nil
	}
}

// WithValidationByDefault sets the process-wide validation default applied to
// commands without a per-instance override. The default is false.
func WithValidationByDefault(enabled bool) Option {
	return func(d *Dispatcher) error {
		d.validateByDefault = enabled
		return nil
	}
}

// WithEventPublishingByDefault sets the process-wide event-publishing default
// applied to commands without a per-instance override. The default is true.
func WithEventPublishingByDefault(enabled bool) Option {
	return func(d *Dispatcher) error {
		d.publishByDefault = enabled
		return nil
	}
}
