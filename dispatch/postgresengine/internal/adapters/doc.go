// Package adapters provides database abstractions for the Postgres domain store.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
//   - pgx (pgxpool.Pool)
//   - database/sql (sql.DB)
//   - sqlx (sqlx.DB)
//
// The engine only depends on the small DBAdapter interface; the concrete
// adapters translate between it and the library-specific APIs.
package adapters
