// Package memoryengine implements the dispatch.Store contract in process
// memory. It exists for development setups and tests; histories do not
// survive a restart. The optimistic-concurrency semantics are identical to
// the Postgres engine.
package memoryengine

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/MrKimHH/kledex-go/dispatch"
)

// Store keeps one in-memory history per aggregate, guarded by a single
// mutex: appends to the same aggregate are serialized, the version check
// rejects stale commands exactly like the Postgres engine does.
type Store struct {
	mu        sync.Mutex
	histories map[historyKey][]dispatch.DomainEvent
}

type historyKey struct {
	aggregateType   dispatch.AggregateTypeString
	aggregateRootID uuid.UUID
}

// NewStore creates an empty in-memory Store.
func NewStore() *Store {
	return &Store{
		histories: make(map[historyKey][]dispatch.DomainEvent),
	}
}

// Append appends the stamped domain events as the next entries of the
// aggregate's history. The whole sequence is appended atomically; a stale
// expected version fails with dispatch.ErrConcurrencyConflict and leaves the
// history untouched.
func (s *Store) Append(
	ctx context.Context,
	aggregateType dispatch.AggregateTypeString,
	aggregateRootID uuid.UUID,
	command dispatch.DomainCommand,
	events []dispatch.DomainEvent,
) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	for _, event := range events {
		if !event.Stamped() {
			return dispatch.ErrUnstampedEvent
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := historyKey{aggregateType: aggregateType, aggregateRootID: aggregateRootID}
	history := s.histories[key]

	currentVersion := dispatch.AggregateVersionUint(len(history))
	if currentVersion != command.ExpectedVersion() {
		return dispatch.ErrConcurrencyConflict
	}

	s.histories[key] = append(history, events...)

	return nil
}

// Load returns a copy of the aggregate's history in append order and its
// current version (zero for an aggregate without history).
func (s *Store) Load(
	ctx context.Context,
	aggregateType dispatch.AggregateTypeString,
	aggregateRootID uuid.UUID,
) ([]dispatch.DomainEvent, dispatch.AggregateVersionUint, error) {

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := historyKey{aggregateType: aggregateType, aggregateRootID: aggregateRootID}
	history := s.histories[key]

	events := make([]dispatch.DomainEvent, len(history))
	copy(events, history)

	return events, dispatch.AggregateVersionUint(len(history)), nil
}

// Ensure Store implements the dispatch.Store contract.
var _ dispatch.Store = (*Store)(nil)
