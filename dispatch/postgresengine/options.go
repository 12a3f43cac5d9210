package postgresengine

import (
	"github.com/MrKimHH/kledex-go/dispatch"
)

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithTableName sets the event table name for the Store.
func WithTableName(tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		s.eventTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Event counts, durations, concurrency conflicts (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger dispatch.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// Ensure Store implements the dispatch.Store contract.
var _ dispatch.Store = Store{}
