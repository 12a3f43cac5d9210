package postgresengine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrKimHH/kledex-go/dispatch"
)

func Test_NewStore_NilConnectionFails(t *testing.T) {
	t.Run("pgx pool", func(t *testing.T) {
		_, err := NewStoreFromPGXPool(nil)
		assert.ErrorIs(t, err, ErrNilDatabaseConnection)
	})

	t.Run("sql db", func(t *testing.T) {
		_, err := NewStoreFromSQLDB(nil)
		assert.ErrorIs(t, err, ErrNilDatabaseConnection)
	})

	t.Run("sqlx db", func(t *testing.T) {
		_, err := NewStoreFromSQLX(nil)
		assert.ErrorIs(t, err, ErrNilDatabaseConnection)
	})
}

func Test_NewStore_EmptyTableNameFails(t *testing.T) {
	_, err := newStore(&fakeDBAdapter{}, WithTableName(""))

	assert.ErrorIs(t, err, ErrEmptyTableName)
}

func Test_Append_EmptyEventSliceIsANoOp(t *testing.T) {
	db := &fakeDBAdapter{}
	store, err := newStore(db)
	require.NoError(t, err)

	command := buildTestCreditAccount(uuid.New(), 0)

	err = store.Append(context.Background(), command.AggregateType(), command.AggregateRootID(), command, nil)

	require.NoError(t, err)
	assert.Empty(t, db.execQueries, "an empty append must not touch the database")
}

func Test_Append_SingleEvent_BuildsGuardedInsert(t *testing.T) {
	db := &fakeDBAdapter{result: fakeResult{rowsAffected: 1}}
	store, err := newStore(db)
	require.NoError(t, err)

	command := buildTestCreditAccount(uuid.New(), 5)
	events := stampedTestEvents(command, 1)

	err = store.Append(context.Background(), command.AggregateType(), command.AggregateRootID(), command, events)

	require.NoError(t, err)
	require.Len(t, db.execQueries, 1)

	sqlQuery := db.execQueries[0]
	assert.Contains(t, sqlQuery, `INSERT INTO "domain_events"`)
	assert.Contains(t, sqlQuery, "WITH context AS")
	assert.Contains(t, sqlQuery, `COALESCE("max_ver", 0)`)
	assert.Contains(t, sqlQuery, command.AggregateRootID().String())
	assert.Contains(t, sqlQuery, testAccountAggregateType)
}

func Test_Append_MultipleEvents_BuildsOneAtomicInsert(t *testing.T) {
	db := &fakeDBAdapter{result: fakeResult{rowsAffected: 3}}
	store, err := newStore(db)
	require.NoError(t, err)

	command := buildTestCreditAccount(uuid.New(), 2)
	events := stampedTestEvents(command, 3)

	err = store.Append(context.Background(), command.AggregateType(), command.AggregateRootID(), command, events)

	require.NoError(t, err)
	require.Len(t, db.execQueries, 1, "the whole sequence must be appended with one statement")

	sqlQuery := db.execQueries[0]
	assert.Contains(t, sqlQuery, `INSERT INTO "domain_events"`)
	assert.Contains(t, sqlQuery, "WITH context AS")
	assert.Contains(t, sqlQuery, "vals AS")
	assert.Contains(t, sqlQuery, "UNION ALL")
	assert.Contains(t, sqlQuery, "::jsonb")
	assert.Contains(t, sqlQuery, `COALESCE("max_ver", 0)`)
}

func Test_Append_CustomTableNameIsUsed(t *testing.T) {
	db := &fakeDBAdapter{result: fakeResult{rowsAffected: 1}}
	store, err := newStore(db, WithTableName("account_events"))
	require.NoError(t, err)

	command := buildTestCreditAccount(uuid.New(), 0)
	events := stampedTestEvents(command, 1)

	err = store.Append(context.Background(), command.AggregateType(), command.AggregateRootID(), command, events)

	require.NoError(t, err)
	require.Len(t, db.execQueries, 1)
	assert.Contains(t, db.execQueries[0], `INSERT INTO "account_events"`)
	assert.NotContains(t, db.execQueries[0], "domain_events")
}

func Test_Append_LostRaceYieldsConcurrencyConflict(t *testing.T) {
	db := &fakeDBAdapter{result: fakeResult{rowsAffected: 0}}
	store, err := newStore(db)
	require.NoError(t, err)

	command := buildTestCreditAccount(uuid.New(), 7)
	events := stampedTestEvents(command, 2)

	err = store.Append(context.Background(), command.AggregateType(), command.AggregateRootID(), command, events)

	assert.ErrorIs(t, err, dispatch.ErrConcurrencyConflict)
}

func Test_Append_UnstampedEventFails(t *testing.T) {
	db := &fakeDBAdapter{result: fakeResult{rowsAffected: 1}}
	store, err := newStore(db)
	require.NoError(t, err)

	command := buildTestCreditAccount(uuid.New(), 0)
	events := []dispatch.DomainEvent{&testAccountCredited{Amount: 100}}

	err = store.Append(context.Background(), command.AggregateType(), command.AggregateRootID(), command, events)

	assert.ErrorIs(t, err, dispatch.ErrUnstampedEvent)
	assert.Empty(t, db.execQueries)
}

func Test_Append_ExecFailureIsWrapped(t *testing.T) {
	execErr := errors.New("connection refused")
	db := &fakeDBAdapter{execErr: execErr}
	store, err := newStore(db)
	require.NoError(t, err)

	command := buildTestCreditAccount(uuid.New(), 0)
	events := stampedTestEvents(command, 1)

	err = store.Append(context.Background(), command.AggregateType(), command.AggregateRootID(), command, events)

	assert.ErrorIs(t, err, dispatch.ErrAppendingEventsFailed)
	assert.ErrorIs(t, err, execErr)
}

func Test_Append_RowsAffectedFailureIsWrapped(t *testing.T) {
	rowsAffectedErr := errors.New("driver does not support rows affected")
	db := &fakeDBAdapter{result: fakeResult{rowsAffectedErr: rowsAffectedErr}}
	store, err := newStore(db)
	require.NoError(t, err)

	command := buildTestCreditAccount(uuid.New(), 0)
	events := stampedTestEvents(command, 1)

	err = store.Append(context.Background(), command.AggregateType(), command.AggregateRootID(), command, events)

	assert.ErrorIs(t, err, ErrGettingRowsAffectedFailed)
	assert.ErrorIs(t, err, rowsAffectedErr)
}

func Test_Load_ReturnsHistoryInVersionOrder(t *testing.T) {
	occurredAt := time.Date(2025, 5, 17, 9, 30, 0, 0, time.UTC)
	db := &fakeDBAdapter{rows: &fakeRows{rows: [][]any{
		{dispatch.AggregateVersionUint(1), testAccountCreditedEventType, occurredAt, []byte(`{"Amount": 100}`), []byte(`{"messageId": "m-1"}`)},
		{dispatch.AggregateVersionUint(2), testAccountCreditedEventType, occurredAt, []byte(`{"Amount": 200}`), []byte(`{"messageId": "m-2"}`)},
	}}}
	store, err := newStore(db)
	require.NoError(t, err)

	aggregateRootID := uuid.New()

	history, currentVersion, err := store.Load(context.Background(), testAccountAggregateType, aggregateRootID)

	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, dispatch.AggregateVersionUint(2), currentVersion)
	assert.Equal(t, dispatch.AggregateVersionUint(1), history[0].Version)
	assert.Equal(t, aggregateRootID, history[0].AggregateID)
	assert.Equal(t, testAccountAggregateType, history[0].AggregateType)

	require.Len(t, db.queryQueries, 1)
	sqlQuery := db.queryQueries[0]
	assert.Contains(t, sqlQuery, `FROM "domain_events"`)
	assert.Contains(t, sqlQuery, `ORDER BY "version" ASC`)
	assert.Contains(t, sqlQuery, aggregateRootID.String())
}

func Test_Load_EmptyHistoryYieldsVersionZero(t *testing.T) {
	db := &fakeDBAdapter{}
	store, err := newStore(db)
	require.NoError(t, err)

	history, currentVersion, err := store.Load(context.Background(), testAccountAggregateType, uuid.New())

	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Zero(t, currentVersion)
}

func Test_Load_QueryFailureIsWrapped(t *testing.T) {
	queryErr := errors.New("relation does not exist")
	db := &fakeDBAdapter{queryErr: queryErr}
	store, err := newStore(db)
	require.NoError(t, err)

	_, _, err = store.Load(context.Background(), testAccountAggregateType, uuid.New())

	assert.ErrorIs(t, err, ErrLoadingEventsFailed)
	assert.ErrorIs(t, err, queryErr)
}

func Test_Load_ScanFailureIsWrapped(t *testing.T) {
	scanErr := errors.New("cannot scan NULL into string")
	db := &fakeDBAdapter{rows: &fakeRows{
		rows:    [][]any{{dispatch.AggregateVersionUint(1), "", time.Time{}, []byte(nil), []byte(nil)}},
		scanErr: scanErr,
	}}
	store, err := newStore(db)
	require.NoError(t, err)

	_, _, err = store.Load(context.Background(), testAccountAggregateType, uuid.New())

	assert.ErrorIs(t, err, ErrScanningDBRowFailed)
	assert.ErrorIs(t, err, scanErr)
}
