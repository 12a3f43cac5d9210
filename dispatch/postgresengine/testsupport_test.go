package postgresengine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MrKimHH/kledex-go/dispatch"
	"github.com/MrKimHH/kledex-go/dispatch/postgresengine/internal/adapters"
)

const (
	testAccountAggregateType     = "Account"
	testAccountCreditedEventType = "AccountCredited"
)

type testCreditAccount struct {
	dispatch.DomainCommandBase
}

func buildTestCreditAccount(aggregateRootID uuid.UUID, expectedVersion dispatch.AggregateVersionUint) *testCreditAccount {
	return &testCreditAccount{
		DomainCommandBase: dispatch.BuildDomainCommandBase(aggregateRootID, expectedVersion),
	}
}

func (c *testCreditAccount) CommandType() dispatch.CommandTypeString {
	return "CreditAccount"
}

func (c *testCreditAccount) AggregateType() dispatch.AggregateTypeString {
	return testAccountAggregateType
}

type testAccountCredited struct {
	dispatch.DomainEventBase

	Amount     int64
	OccurredAt time.Time `json:"-"`
}

func (e *testAccountCredited) EventType() dispatch.EventTypeString {
	return testAccountCreditedEventType
}

func (e *testAccountCredited) HasOccurredAt() time.Time {
	return e.OccurredAt
}

// stampedTestEvents builds n stamped events for the given command.
func stampedTestEvents(command dispatch.DomainCommand, n int) []dispatch.DomainEvent {
	events := make([]dispatch.DomainEvent, 0, n)

	for i := 0; i < n; i++ {
		event := &testAccountCredited{Amount: int64(i+1) * 100, OccurredAt: time.Now().UTC()}
		if err := dispatch.ApplyCommand(event, command); err != nil {
			panic(err)
		}

		events = append(events, event)
	}

	return events
}

type fakeResult struct {
	rowsAffected    int64
	rowsAffectedErr error
}

func (r fakeResult) RowsAffected() (int64, error) {
	return r.rowsAffected, r.rowsAffectedErr
}

type fakeRows struct {
	rows     [][]any
	position int
	scanErr  error
}

func (r *fakeRows) Next() bool {
	r.position++
	return r.position <= len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}

	row := r.rows[r.position-1]
	*(dest[0].(*dispatch.AggregateVersionUint)) = row[0].(dispatch.AggregateVersionUint)
	*(dest[1].(*string)) = row[1].(string)
	*(dest[2].(*time.Time)) = row[2].(time.Time)
	*(dest[3].(*[]byte)) = row[3].([]byte)
	*(dest[4].(*[]byte)) = row[4].([]byte)

	return nil
}

func (r *fakeRows) Close() error {
	return nil
}

// fakeDBAdapter records the SQL handed to it and answers with configurable results.
type fakeDBAdapter struct {
	execQueries  []string
	queryQueries []string
	result       fakeResult
	rows         *fakeRows
	execErr      error
	queryErr     error
}

func (a *fakeDBAdapter) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	a.execQueries = append(a.execQueries, query)

	if a.execErr != nil {
		return nil, a.execErr
	}

	return a.result, nil
}

func (a *fakeDBAdapter) Query(_ context.Context, query string) (adapters.DBRows, error) {
	a.queryQueries = append(a.queryQueries, query)

	if a.queryErr != nil {
		return nil, a.queryErr
	}

	if a.rows == nil {
		return &fakeRows{}, nil
	}

	return a.rows, nil
}
