// Package postgresengine implements the dispatch.Store contract on
// PostgreSQL.
//
// Every aggregate's history lives in one append-only table; optimistic
// concurrency is enforced inside a single conditional INSERT statement that
// only inserts when the aggregate's current MAX(version) still equals the
// version the originating command was issued against. A lost race surfaces
// as dispatch.ErrConcurrencyConflict, detected through the affected row
// count - no SELECT-then-INSERT window, no advisory locks.
//
// The engine supports pgx pools, database/sql and sqlx through a small
// internal adapter layer, so the client code can choose its database library:
//
//	store, err := postgresengine.NewStoreFromPGXPool(pool)
//	store, err := postgresengine.NewStoreFromSQLDB(db)
//	store, err := postgresengine.NewStoreFromSQLX(db)
//
// Expected table schema (default table name "domain_events"):
//
//	CREATE TABLE domain_events (
//	    aggregate_id   uuid        NOT NULL,
//	    aggregate_type text        NOT NULL,
//	    version        bigint      NOT NULL,
//	    event_type     text        NOT NULL,
//	    occurred_at    timestamptz NOT NULL,
//	    payload        jsonb       NOT NULL,
//	    metadata       jsonb       NOT NULL,
//	    UNIQUE (aggregate_id, version)
//	);
package postgresengine
