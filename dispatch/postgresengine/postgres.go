package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/MrKimHH/kledex-go/dispatch"
	"github.com/MrKimHH/kledex-go/dispatch/postgresengine/internal/adapters"
)

var (
	// ErrNilDatabaseConnection is returned when a nil database connection is supplied to a constructor.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableName is returned when an empty table name is supplied to WithTableName.
	ErrEmptyTableName = errors.New("empty table name supplied")

	// ErrBuildingQueryFailed is returned when an SQL statement cannot be built.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrLoadingEventsFailed is returned when reading an aggregate's history fails.
	ErrLoadingEventsFailed = errors.New("loading domain events failed")

	// ErrScanningDBRowFailed is returned when a database row cannot be scanned.
	ErrScanningDBRowFailed = errors.New("scanning database row failed")

	// ErrGettingRowsAffectedFailed is returned when the affected row count cannot be determined.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")
)

const (
	defaultEventTableName        = "domain_events"
	logMsgBuildInsertQueryFailed = "failed to build insert query"
	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgDBExecFailed           = "database execution failed during event append"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgRowsAffectedFailed     = "failed to get rows affected count"
	logMsgEventsAppended         = "domain events appended"
	logMsgHistoryLoaded          = "aggregate history loaded"
	logMsgConcurrencyConflict    = "concurrency conflict detected"
	logMsgSQLExecuted            = "executed sql for: "
	logMsgOperation              = "domain store operation: "
	logAttrError                 = "error"
	logAttrQuery                 = "query"
	logAttrAggregateType         = "aggregate_type"
	logAttrAggregateID           = "aggregate_id"
	logAttrEventCount            = "event_count"
	logAttrDurationMS            = "duration_ms"
	logAttrExpectedVersion       = "expected_version"
	logAttrRowsAffected          = "rows_affected"
	logActionAppend              = "append"
	logActionLoad                = "load"
	colAggregateID               = "aggregate_id"
	colAggregateType             = "aggregate_type"
	colVersion                   = "version"
	colEventType                 = "event_type"
	colOccurredAt                = "occurred_at"
	colPayload                   = "payload"
	colMetadata                  = "metadata"
	cteContext                   = "context"
	cteVals                      = "vals"
	dialectPostgres              = "postgres"
	aliasMaxVer                  = "max_ver"
	castUUID                     = "?::uuid"
	castText                     = "?::text"
	castBigint                   = "?::bigint"
	castTimestamp                = "?::timestamp with time zone"
	castJsonb                    = "?::jsonb"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
	queryDuration     = time.Duration
)

// Store appends domain events to per-aggregate histories in PostgreSQL under
// optimistic concurrency. It implements the dispatch.Store contract and
// supports customizable logging and event table configuration.
type Store struct {
	db             adapters.DBAdapter
	eventTableName string
	logger         dispatch.Logger
}

type historyResultRow struct {
	version    dispatch.AggregateVersionUint
	eventType  string
	occurredAt time.Time
	payload    []byte
	metadata   []byte
}

// NewStoreFromPGXPool creates a new Store using a pgx pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (Store, error) {
	store := Store{
		db:             db,
		eventTableName: defaultEventTableName,
	}

	for _, option := range options {
		if err := option(&store); err != nil {
			return Store{}, err
		}
	}

	return store, nil
}

// Append durably appends the stamped domain events as the next entries of the
// aggregate's history, as one atomic insert.
//
// The insert only takes effect while the aggregate's current version still
// equals the expected version the originating command carries; a lost race
// surfaces as dispatch.ErrConcurrencyConflict and nothing is inserted.
func (s Store) Append(
	ctx context.Context,
	aggregateType dispatch.AggregateTypeString,
	aggregateRootID uuid.UUID,
	command dispatch.DomainCommand,
	events []dispatch.DomainEvent,
) error {

	if len(events) == 0 {
		return nil
	}

	expectedVersion := command.ExpectedVersion()

	storedEvents := make(StoredEvents, 0, len(events))
	for i, event := range events {
		storedEvent, mappingErr := StoredEventFrom(event, expectedVersion+dispatch.AggregateVersionUint(i)+1)
		if mappingErr != nil {
			return errors.Join(dispatch.ErrAppendingEventsFailed, mappingErr)
		}

		storedEvents = append(storedEvents, storedEvent)
	}

	sqlQuery, buildQueryErr := s.buildAppendQuery(storedEvents, aggregateType, aggregateRootID, expectedVersion)
	if buildQueryErr != nil {
		return buildQueryErr
	}

	rowsAffected, duration, execErr := s.executeAppendQuery(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if err := s.validateAppendResult(rowsAffected, len(storedEvents), expectedVersion); err != nil {
		return err
	}

	s.logOperation(
		logMsgEventsAppended,
		logAttrAggregateType, aggregateType,
		logAttrAggregateID, aggregateRootID.String(),
		logAttrEventCount, len(storedEvents),
		logAttrDurationMS, s.durationToMilliseconds(duration),
	)

	return nil
}

// Load retrieves the stored history of the aggregate in version order and
// returns its current version (zero for an aggregate without history).
func (s Store) Load(
	ctx context.Context,
	aggregateType dispatch.AggregateTypeString,
	aggregateRootID uuid.UUID,
) (StoredEvents, dispatch.AggregateVersionUint, error) {

	var empty StoredEvents

	sqlQuery, buildQueryErr := s.buildSelectQuery(aggregateType, aggregateRootID)
	if buildQueryErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgBuildSelectQueryFailed, logAttrError, buildQueryErr.Error())
		}
		return empty, 0, buildQueryErr
	}

	start := time.Now()
	rows, queryErr := s.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(sqlQuery, logActionLoad, duration)

	if queryErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		}

		return empty, 0, errors.Join(ErrLoadingEventsFailed, queryErr)
	}
	defer s.closeRows(rows)

	history, currentVersion, scanErr := s.processHistoryRows(rows, aggregateType, aggregateRootID)
	if scanErr != nil {
		return empty, 0, scanErr
	}

	s.logOperation(
		logMsgHistoryLoaded,
		logAttrAggregateType, aggregateType,
		logAttrAggregateID, aggregateRootID.String(),
		logAttrEventCount, len(history),
		logAttrDurationMS, s.durationToMilliseconds(duration),
	)

	return history, currentVersion, nil
}

func (s Store) processHistoryRows(
	rows adapters.DBRows,
	aggregateType dispatch.AggregateTypeString,
	aggregateRootID uuid.UUID,
) (StoredEvents, dispatch.AggregateVersionUint, error) {

	var empty StoredEvents
	result := historyResultRow{}
	history := make(StoredEvents, 0)
	currentVersion := dispatch.AggregateVersionUint(0)

	for rows.Next() {
		rowScanErr := rows.Scan(&result.version, &result.eventType, &result.occurredAt, &result.payload, &result.metadata)
		if rowScanErr != nil {
			if s.logger != nil {
				s.logger.Error(logMsgScanRowFailed, logAttrError, rowScanErr.Error())
			}

			return empty, 0, errors.Join(ErrScanningDBRowFailed, rowScanErr)
		}

		storedEvent, buildErr := BuildStoredEvent(
			aggregateRootID,
			aggregateType,
			result.version,
			result.eventType,
			result.occurredAt,
			result.payload,
			result.metadata,
		)
		if buildErr != nil {
			return empty, 0, errors.Join(ErrLoadingEventsFailed, buildErr)
		}

		history = append(history, storedEvent)
		currentVersion = result.version
	}

	return history, currentVersion, nil
}

// executeAppendQuery executes the SQL append query and returns rows affected and duration.
func (s Store) executeAppendQuery(ctx context.Context, sqlQuery string) (
	rowsAffectedInt64,
	queryDuration,
	error,
) {

	start := time.Now()
	tag, execErr := s.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(sqlQuery, logActionAppend, duration)

	if execErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		}

		return 0, duration, errors.Join(dispatch.ErrAppendingEventsFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := tag.RowsAffected()
	if rowsAffectedErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgRowsAffectedFailed, logAttrError, rowsAffectedErr.Error())
		}

		return 0, duration, errors.Join(ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

// validateAppendResult checks if the append took effect and detects concurrency conflicts.
func (s Store) validateAppendResult(
	rowsAffected int64,
	expectedEventCount int,
	expectedVersion dispatch.AggregateVersionUint,
) error {

	if rowsAffected < int64(expectedEventCount) {
		s.logOperation(
			logMsgConcurrencyConflict,
			logAttrEventCount, expectedEventCount,
			logAttrRowsAffected, rowsAffected,
			logAttrExpectedVersion, expectedVersion,
		)

		return dispatch.ErrConcurrencyConflict
	}

	return nil
}

func (s Store) buildSelectQuery(
	aggregateType dispatch.AggregateTypeString,
	aggregateRootID uuid.UUID,
) (sqlQueryString, error) {

	selectStmt := goqu.Dialect(dialectPostgres).
		From(s.eventTableName).
		Select(colVersion, colEventType, colOccurredAt, colPayload, colMetadata).
		Where(
			goqu.C(colAggregateID).Eq(aggregateRootID.String()),
			goqu.C(colAggregateType).Eq(aggregateType),
		).
		Order(goqu.I(colVersion).Asc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildAppendQuery builds the appropriate SQL query for single or multiple events.
func (s Store) buildAppendQuery(
	storedEvents StoredEvents,
	aggregateType dispatch.AggregateTypeString,
	aggregateRootID uuid.UUID,
	expectedVersion dispatch.AggregateVersionUint,
) (sqlQueryString, error) {

	var sqlQuery sqlQueryString
	var buildQueryErr error

	switch len(storedEvents) {
	case 1:
		sqlQuery, buildQueryErr = s.buildInsertQueryForSingleEvent(storedEvents[0], aggregateType, aggregateRootID, expectedVersion)

	default:
		sqlQuery, buildQueryErr = s.buildInsertQueryForMultipleEvents(storedEvents, aggregateType, aggregateRootID, expectedVersion)
	}

	if buildQueryErr != nil {
		if s.logger != nil {
			s.logger.Error(logMsgBuildInsertQueryFailed, logAttrError, buildQueryErr.Error(), logAttrEventCount, len(storedEvents))
		}

		return "", errors.Join(ErrBuildingQueryFailed, buildQueryErr)
	}

	return sqlQuery, nil
}

func (s Store) buildInsertQueryForSingleEvent(
	storedEvent StoredEvent,
	aggregateType dispatch.AggregateTypeString,
	aggregateRootID uuid.UUID,
	expectedVersion dispatch.AggregateVersionUint,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	// CTE selecting the aggregate's current version
	cteStmt := s.currentVersionStmt(builder, aggregateType, aggregateRootID)

	// SELECT for the INSERT, guarded by the expected version
	selectStmt := builder.
		From(cteContext).
		Select(
			goqu.V(storedEvent.AggregateID.String()),
			goqu.V(storedEvent.AggregateType),
			goqu.V(storedEvent.Version),
			goqu.V(storedEvent.EventType),
			goqu.V(storedEvent.OccurredAt),
			goqu.V(storedEvent.PayloadJSON),
			goqu.V(storedEvent.MetadataJSON),
		).
		Where(goqu.COALESCE(goqu.C(aliasMaxVer), 0).Eq(goqu.V(expectedVersion)))

	insertStmt := builder.
		Insert(s.eventTableName).
		Cols(colAggregateID, colAggregateType, colVersion, colEventType, colOccurredAt, colPayload, colMetadata).
		FromQuery(selectStmt).
		With(cteContext, cteStmt)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", toSQLErr
	}

	return sqlQuery, nil
}

func (s Store) buildInsertQueryForMultipleEvents(
	storedEvents StoredEvents,
	aggregateType dispatch.AggregateTypeString,
	aggregateRootID uuid.UUID,
	expectedVersion dispatch.AggregateVersionUint,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	// CTE selecting the aggregate's current version
	cteStmt := s.currentVersionStmt(builder, aggregateType, aggregateRootID)

	// One SELECT per event, combined with UNION ALL to keep the append atomic
	unionStatements := make([]*goqu.SelectDataset, len(storedEvents))
	for i, storedEvent := range storedEvents {
		unionStatements[i] = builder.
			Select(
				goqu.L(castUUID, storedEvent.AggregateID.String()).As(colAggregateID),
				goqu.L(castText, storedEvent.AggregateType).As(colAggregateType),
				goqu.L(castBigint, storedEvent.Version).As(colVersion),
				goqu.L(castText, storedEvent.EventType).As(colEventType),
				goqu.L(castTimestamp, storedEvent.OccurredAt).As(colOccurredAt),
				goqu.L(castJsonb, storedEvent.PayloadJSON).As(colPayload),
				goqu.L(castJsonb, storedEvent.MetadataJSON).As(colMetadata),
			)
	}

	valuesStmt := unionStatements[0]
	for i := 1; i < len(unionStatements); i++ {
		valuesStmt = valuesStmt.UnionAll(unionStatements[i])
	}

	valsAggregateID := fmt.Sprintf("%s.%s", cteVals, colAggregateID)
	valsAggregateType := fmt.Sprintf("%s.%s", cteVals, colAggregateType)
	valsVersion := fmt.Sprintf("%s.%s", cteVals, colVersion)
	valsEventType := fmt.Sprintf("%s.%s", cteVals, colEventType)
	valsOccurredAt := fmt.Sprintf("%s.%s", cteVals, colOccurredAt)
	valsPayload := fmt.Sprintf("%s.%s", cteVals, colPayload)
	valsMetadata := fmt.Sprintf("%s.%s", cteVals, colMetadata)

	insertStmt := builder.
		Insert(s.eventTableName).
		Cols(colAggregateID, colAggregateType, colVersion, colEventType, colOccurredAt, colPayload, colMetadata).
		With(cteContext, cteStmt).
		With(cteVals, valuesStmt).
		FromQuery(
			builder.From(cteContext, cteVals).
				Select(valsAggregateID, valsAggregateType, valsVersion, valsEventType, valsOccurredAt, valsPayload, valsMetadata).
				Where(goqu.COALESCE(goqu.C(aliasMaxVer), 0).Eq(goqu.V(expectedVersion))),
		)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", toSQLErr
	}

	return sqlQuery, nil
}

func (s Store) currentVersionStmt(
	builder goqu.DialectWrapper,
	aggregateType dispatch.AggregateTypeString,
	aggregateRootID uuid.UUID,
) *goqu.SelectDataset {

	return builder.
		From(s.eventTableName).
		Select(goqu.MAX(colVersion).As(aliasMaxVer)).
		Where(
			goqu.C(colAggregateID).Eq(aggregateRootID.String()),
			goqu.C(colAggregateType).Eq(aggregateType),
		)
}

// closeRows safely closes database rows and logs any errors.
func (s Store) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// logQueryWithDuration logs SQL queries with execution time at debug level if the logger is configured.
func (s Store) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, s.durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if the logger is configured.
func (s Store) logOperation(action string, args ...any) {
	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (s Store) durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
