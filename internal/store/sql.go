package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/consolecache/internal/dbx"
	"github.com/dmitrijs2005/consolecache/internal/logging"
	"github.com/dmitrijs2005/consolecache/internal/store/migrations"
	"github.com/pressly/goose/v3"
)

// Options selects and configures the backing engine.
type Options struct {
	// Driver is DriverSQLite (default) or DriverPostgres.
	Driver string
	// DSN is a file path / sqlite URI, or a PostgreSQL connection string.
	DSN    string
	Logger logging.Logger
}

// SQLStore implements Store on top of database/sql. All partitions live in
// one physical table keyed by (partition_name, record_key); the partition
// catalog and the logical schema version live next to it.
type SQLStore struct {
	db         *sql.DB
	d          dialect
	logger     logging.Logger
	partitions map[string]struct{}
	now        func() time.Time
}

var _ Store = (*SQLStore)(nil)

// goose keeps its base FS and dialect in package globals.
var migrateMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Open opens (creating when absent) the store described by opts and
// reconciles its partition catalog with schema.
//
// Open is idempotent. A schema with a higher version than the one on disk
// adds its new partitions; existing partitions and their contents are kept.
// A lower version fails with ErrSchemaDowngrade. Declaring a new partition
// without raising the version fails with ErrInvalidSchema.
func Open(ctx context.Context, opts Options, schema Schema) (*SQLStore, error) {
	if err := schema.validate(); err != nil {
		return nil, err
	}

	d, err := dialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driverName, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if d.maxConns > 0 {
		db.SetMaxOpenConns(d.maxConns)
		db.SetMaxIdleConns(d.maxConns)
	}

	for _, pragma := range d.pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if err := runMigrations(ctx, db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := newSQLStore(db, d, opts.Logger)
	if err := s.reconcile(ctx, schema); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Debug(ctx, "store opened", "driver", d.name, "version", schema.Version, "partitions", len(s.partitions))
	return s, nil
}

func newSQLStore(db *sql.DB, d dialect, logger logging.Logger) *SQLStore {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SQLStore{
		db:         db,
		d:          d,
		logger:     logger,
		partitions: map[string]struct{}{},
		now:        time.Now,
	}
}

func runMigrations(ctx context.Context, db *sql.DB, d dialect) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(d.gooseName); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

// reconcile applies the additive schema upgrade in one transaction and loads
// the partition catalog.
func (s *SQLStore) reconcile(ctx context.Context, schema Schema) error {
	known := map[string]struct{}{}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var current int
		err := tx.QueryRowContext(ctx, s.d.q(`SELECT schema_version FROM store_meta WHERE id = 1`)).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		if current > schema.Version {
			return fmt.Errorf("%w: on-disk version %d, requested %d", ErrSchemaDowngrade, current, schema.Version)
		}

		created := s.now().UnixMilli()
		for _, p := range schema.Partitions {
			r, err := tx.ExecContext(ctx, s.d.q(`
				INSERT INTO store_partitions (name, created_at) VALUES (?, ?)
				ON CONFLICT (name) DO NOTHING
			`), p, created)
			if err != nil {
				return fmt.Errorf("failed to declare partition %s: %w", p, err)
			}
			// New partitions need a new version; the transaction rolls back.
			if current > 0 && current == schema.Version {
				if n, err := r.RowsAffected(); err == nil && n > 0 {
					return fmt.Errorf("%w: partition %s added without a version bump (version %d)", ErrInvalidSchema, p, current)
				}
			}
		}

		if current < schema.Version {
			_, err := tx.ExecContext(ctx, s.d.q(`
				INSERT INTO store_meta (id, schema_version) VALUES (1, ?)
				ON CONFLICT (id) DO UPDATE SET schema_version = excluded.schema_version
			`), schema.Version)
			if err != nil {
				return fmt.Errorf("failed to set schema version: %w", err)
			}
		}

		rows, err := tx.QueryContext(ctx, `SELECT name FROM store_partitions`)
		if err != nil {
			return fmt.Errorf("failed to list partitions: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return fmt.Errorf("failed to scan partition row: %w", err)
			}
			known[name] = struct{}{}
		}
		return rows.Err()
	})
	if err != nil {
		return err
	}

	s.partitions = known
	return nil
}

func (s *SQLStore) checkPartition(partition string) error {
	if _, ok := s.partitions[partition]; !ok {
		return fmt.Errorf("%w: %s", ErrPartitionNotFound, partition)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, partition, key string) (*Entry, error) {
	if err := s.checkPartition(partition); err != nil {
		return nil, err
	}

	var value string
	var updated int64
	err := s.db.QueryRowContext(ctx, s.d.q(`
		SELECT value, updated_at FROM store_records
		WHERE partition_name = ? AND record_key = ?
	`), partition, key).Scan(&value, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s[%s]: %w", partition, key, err)
	}

	return &Entry{Key: key, Value: json.RawMessage(value), UpdatedAt: time.UnixMilli(updated).UTC()}, nil
}

func (s *SQLStore) Put(ctx context.Context, partition, key string, value any) (string, error) {
	if err := s.checkPartition(partition); err != nil {
		return "", err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s[%s]: %w", partition, key, err)
	}

	_, err = s.db.ExecContext(ctx, s.d.q(`
		INSERT INTO store_records (partition_name, record_key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (partition_name, record_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`), partition, key, string(data), s.now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("failed to put %s[%s]: %w", partition, key, err)
	}
	return key, nil
}

func (s *SQLStore) Delete(ctx context.Context, partition, key string) error {
	if err := s.checkPartition(partition); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, s.d.q(`DELETE FROM store_records WHERE partition_name = ? AND record_key = ?`), partition, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s[%s]: %w", partition, key, err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context, partition string) error {
	if err := s.checkPartition(partition); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, s.d.q(`DELETE FROM store_records WHERE partition_name = ?`), partition)
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", partition, err)
	}
	return nil
}

// ClearAll empties every partition in a single transaction, so either all
// partitions are cleared or none is.
func (s *SQLStore) ClearAll(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM store_records`)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}

// DeleteByPrefix compares the leading characters of each key with prefix
// instead of using LIKE, so '%' and '_' in keys have no special meaning.
func (s *SQLStore) DeleteByPrefix(ctx context.Context, partition, prefix string) (int64, error) {
	if err := s.checkPartition(partition); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, s.d.q(`
		DELETE FROM store_records
		WHERE partition_name = ? AND substr(record_key, 1, ?) = ?
	`), partition, utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s[%s*]: %w", partition, prefix, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (s *SQLStore) Keys(ctx context.Context, partition, prefix string) ([]string, error) {
	if err := s.checkPartition(partition); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.d.q(`
		SELECT record_key FROM store_records
		WHERE partition_name = ? AND substr(record_key, 1, ?) = ?
	`), partition, utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s keys: %w", partition, err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate key rows: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

func (s *SQLStore) Partitions() []string {
	out := make([]string, 0, len(s.partitions))
	for p := range s.partitions {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
