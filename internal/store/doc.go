// Package store provides the partitioned persistent key-value store that
// backs the console's local cache.
//
// # Overview
//
// A store is opened with a versioned Schema naming its partitions. Each
// partition holds opaque string keys mapped to JSON values; values are
// replaced wholesale on every Put (last write wins) and carry the time of
// their last write.
//
// # Engines
//
// SQLStore runs on SQLite (modernc.org/sqlite, the default) or PostgreSQL
// (pgx). The physical tables are created by embedded goose migrations; the
// logical schema (partition catalog and version) is reconciled on Open:
//
//   - newer version: new partitions are added, existing data is kept;
//   - same version: no-op (Open is idempotent); a partition missing from
//     the catalog is ErrInvalidSchema;
//   - older version: ErrSchemaDowngrade.
//
// # Errors
//
// Using a partition that was never declared fails with ErrPartitionNotFound.
// Get reports a missing key as (nil, nil), never as an error.
//
// # Atomicity
//
// Put, Delete, Clear and DeleteByPrefix are single statements. ClearAll runs
// in one transaction. There are no transactions spanning several calls.
package store
