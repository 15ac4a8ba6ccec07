package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPartitionNotFound is returned when a partition was not declared by
	// the schema the store was opened with.
	ErrPartitionNotFound = errors.New("partition not found")
	// ErrSchemaDowngrade is returned by Open when the on-disk schema version
	// is newer than the requested one.
	ErrSchemaDowngrade = errors.New("schema downgrade")
	// ErrInvalidSchema is returned by Open for malformed schema declarations.
	ErrInvalidSchema = errors.New("invalid schema")
)

// Schema is the versioned list of partitions a store is opened with.
// Upgrades are additive: a newer version may only add partitions.
type Schema struct {
	Version    int
	Partitions []string
}

func (s Schema) validate() error {
	if s.Version < 1 {
		return fmt.Errorf("%w: version must be positive, got %d", ErrInvalidSchema, s.Version)
	}
	if len(s.Partitions) == 0 {
		return fmt.Errorf("%w: no partitions declared", ErrInvalidSchema)
	}
	seen := make(map[string]struct{}, len(s.Partitions))
	for _, p := range s.Partitions {
		if p == "" {
			return fmt.Errorf("%w: empty partition name", ErrInvalidSchema)
		}
		if _, ok := seen[p]; ok {
			return fmt.Errorf("%w: duplicate partition %q", ErrInvalidSchema, p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// Entry is a stored value together with the time of its last write.
type Entry struct {
	Key       string
	Value     json.RawMessage
	UpdatedAt time.Time
}

// Decode unmarshals the stored JSON into dst.
func (e *Entry) Decode(dst any) error {
	return json.Unmarshal(e.Value, dst)
}

// Store is a persistent key-value store divided into named partitions.
//
// Keys are opaque strings. Values are any JSON-encodable value and are
// replaced wholesale on every Put (last write wins).
type Store interface {
	// Get returns (nil, nil) when the key is absent.
	Get(ctx context.Context, partition, key string) (*Entry, error)
	// Put overwrites the value stored under key and returns the key.
	Put(ctx context.Context, partition, key string, value any) (string, error)
	// Delete removes key; deleting an absent key is not an error.
	Delete(ctx context.Context, partition, key string) error
	// Clear removes every key of one partition.
	Clear(ctx context.Context, partition string) error
	// ClearAll removes every key of every partition. Declared partitions stay.
	ClearAll(ctx context.Context) error
	// DeleteByPrefix removes every key of partition starting with prefix and
	// reports how many were removed.
	DeleteByPrefix(ctx context.Context, partition, prefix string) (int64, error)
	// Keys lists keys of partition starting with prefix, sorted.
	Keys(ctx context.Context, partition, prefix string) ([]string, error)
	// Partitions lists the declared partitions, sorted.
	Partitions() []string
	// Close releases the backing engine.
	Close() error
}

// GetJSON reads key from partition and decodes it into T. found is false
// when the key is absent.
func GetJSON[T any](ctx context.Context, s Store, partition, key string) (value T, found bool, err error) {
	e, err := s.Get(ctx, partition, key)
	if err != nil || e == nil {
		return value, false, err
	}
	if err := e.Decode(&value); err != nil {
		return value, false, fmt.Errorf("failed to decode %s[%s]: %w", partition, key, err)
	}
	return value, true, nil
}
