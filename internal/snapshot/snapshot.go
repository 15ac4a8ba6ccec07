// Package snapshot exports the whole store to a JSON document and restores
// it again. Documents can be sealed with a passphrase and written to a local
// directory or an S3 bucket.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/consolecache/internal/cryptox"
	"github.com/dmitrijs2005/consolecache/internal/logging"
	"github.com/dmitrijs2005/consolecache/internal/store"
	"github.com/google/uuid"
)

const (
	Format        = "consolecache-snapshot"
	FormatVersion = 1
)

var (
	ErrBadFormat          = errors.New("not a snapshot")
	ErrPassphraseRequired = errors.New("snapshot is encrypted, passphrase required")
)

// Record is one stored entry.
type Record struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Document holds every record of every partition.
type Document struct {
	CreatedAt  time.Time           `json:"created_at"`
	Partitions map[string][]Record `json:"partitions"`
}

// Count is the number of records in d.
func (d *Document) Count() int {
	n := 0
	for _, recs := range d.Partitions {
		n += len(recs)
	}
	return n
}

type envelope struct {
	Format   string          `json:"format"`
	Version  int             `json:"version"`
	Document *Document       `json:"document,omitempty"`
	Sealed   *cryptox.Sealed `json:"sealed,omitempty"`
}

// Capture reads every declared partition of st.
func Capture(ctx context.Context, st store.Store) (*Document, error) {
	doc := &Document{
		CreatedAt:  time.Now().UTC(),
		Partitions: map[string][]Record{},
	}

	for _, p := range st.Partitions() {
		keys, err := st.Keys(ctx, p, "")
		if err != nil {
			return nil, err
		}

		recs := make([]Record, 0, len(keys))
		for _, k := range keys {
			e, err := st.Get(ctx, p, k)
			if err != nil {
				return nil, err
			}
			// deleted between Keys and Get
			if e == nil {
				continue
			}
			recs = append(recs, Record{Key: k, Value: e.Value, UpdatedAt: e.UpdatedAt})
		}
		doc.Partitions[p] = recs
	}
	return doc, nil
}

// Restore writes every record of doc back into st and returns how many were
// written. Partitions st does not declare are skipped.
func Restore(ctx context.Context, st store.Store, doc *Document, logger logging.Logger) (int, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	declared := map[string]bool{}
	for _, p := range st.Partitions() {
		declared[p] = true
	}

	n := 0
	for p, recs := range doc.Partitions {
		if !declared[p] {
			logger.Warn(ctx, "skipping undeclared partition", "partition", p, "records", len(recs))
			continue
		}
		for _, r := range recs {
			if _, err := st.Put(ctx, p, r.Key, r.Value); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// Encode serializes doc, sealing it when passphrase is not empty.
func Encode(doc *Document, passphrase string) ([]byte, error) {
	env := envelope{Format: Format, Version: FormatVersion}

	if passphrase == "" {
		env.Document = doc
		return json.Marshal(env)
	}

	plain, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	defer cryptox.Wipe(plain)

	env.Sealed, err = cryptox.Seal(plain, []byte(passphrase))
	if err != nil {
		return nil, fmt.Errorf("failed to seal snapshot: %w", err)
	}
	return json.Marshal(env)
}

// Decode reverses Encode.
func Decode(data []byte, passphrase string) (*Document, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if env.Format != Format {
		return nil, fmt.Errorf("%w: format %q", ErrBadFormat, env.Format)
	}
	if env.Version > FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadFormat, env.Version)
	}

	switch {
	case env.Sealed != nil:
		if passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		plain, err := cryptox.Open(env.Sealed, []byte(passphrase))
		if err != nil {
			return nil, err
		}
		defer cryptox.Wipe(plain)

		var doc Document
		if err := json.Unmarshal(plain, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
		}
		return &doc, nil
	case env.Document != nil:
		return env.Document, nil
	default:
		return nil, fmt.Errorf("%w: empty envelope", ErrBadFormat)
	}
}

// ObjectName returns a fresh, date-partitioned name for a snapshot taken
// at t.
func ObjectName(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("snapshots/%04d/%02d/%02d/%v.json", t.Year(), t.Month(), t.Day(), uuid.New())
}

// Sink stores encoded snapshots under a name.
type Sink interface {
	Write(ctx context.Context, name string, data []byte) (location string, err error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// Export captures st and writes it to sink under a fresh name.
func Export(ctx context.Context, st store.Store, sink Sink, passphrase string) (string, int, error) {
	doc, err := Capture(ctx, st)
	if err != nil {
		return "", 0, fmt.Errorf("failed to capture store: %w", err)
	}

	data, err := Encode(doc, passphrase)
	if err != nil {
		return "", 0, err
	}

	loc, err := sink.Write(ctx, ObjectName(doc.CreatedAt), data)
	if err != nil {
		return "", 0, fmt.Errorf("failed to write snapshot: %w", err)
	}
	return loc, doc.Count(), nil
}

// Import reads name from sink and restores it into st.
func Import(ctx context.Context, st store.Store, sink Sink, name, passphrase string, logger logging.Logger) (int, error) {
	data, err := sink.Read(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot %s: %w", name, err)
	}

	doc, err := Decode(data, passphrase)
	if err != nil {
		return 0, err
	}
	return Restore(ctx, st, doc, logger)
}
