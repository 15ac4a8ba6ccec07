package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/consolecache/internal/logging"
	"github.com/dmitrijs2005/consolecache/internal/metrics"
	"github.com/dmitrijs2005/consolecache/internal/normalize"
	"github.com/dmitrijs2005/consolecache/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrDuplicateResource = errors.New("duplicate resource name")
	// ErrDuplicateTarget is returned when two resources write the same
	// partition.
	ErrDuplicateTarget = errors.New("duplicate sync target")
	ErrInvalidResource = errors.New("invalid resource definition")
)

// DefaultConcurrency bounds how many resources are in flight at once.
const DefaultConcurrency = 4

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// State is the position of one resource within a pass.
type State string

const (
	StatePending     State = "pending"
	StateFetching    State = "fetching"
	StateNormalizing State = "normalizing"
	StateWriting     State = "writing"
	StateSucceeded   State = "succeeded"
	StateFailed      State = "failed"
	StateSkipped     State = "skipped"
)

// Resource is one unit of a sync pass.
type Resource struct {
	Name       string
	Partition  string
	StorageKey func(principal string) string
	Fetch      func(ctx context.Context, principal string) (any, error)
	// Normalize is optional. An error means the payload is unusable and
	// fails the resource; the cached value is kept.
	Normalize func(raw any) (any, normalize.Report, error)
	// Applies is optional; false skips the resource for this principal.
	Applies func(principal string) bool
	// Encode is optional and builds the stored value from the (normalized)
	// value and the sync time. The default is a Record.
	Encode func(value any, syncedAt time.Time) any
}

// Record is the value a sync pass writes.
type Record struct {
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Result describes one pass.
type Result struct {
	PassID   uuid.UUID
	Outcomes map[string]Outcome
	Errors   map[string]error
	Started  time.Time
	Finished time.Time
}

// Map reports success per resource. Skipped resources are left out.
func (r Result) Map() map[string]bool {
	m := make(map[string]bool, len(r.Outcomes))
	for name, o := range r.Outcomes {
		if o == OutcomeSkipped {
			continue
		}
		m[name] = o == OutcomeSuccess
	}
	return m
}

// Failed lists the failed resources, sorted.
func (r Result) Failed() []string {
	var out []string
	for name, o := range r.Outcomes {
		if o == OutcomeFailed {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

type SyncService struct {
	store     store.Store
	resources []Resource
	limit     int
	logger    logging.Logger
	now       func() time.Time
}

type Option func(*SyncService)

// WithConcurrency sets how many resources sync at once; n < 1 means one.
func WithConcurrency(n int) Option {
	return func(s *SyncService) {
		if n < 1 {
			n = 1
		}
		s.limit = n
	}
}

func WithLogger(l logging.Logger) Option {
	return func(s *SyncService) { s.logger = l }
}

func NewSyncService(st store.Store, resources []Resource, opts ...Option) (*SyncService, error) {
	names := make(map[string]struct{}, len(resources))
	partitions := make(map[string]string, len(resources))

	for _, r := range resources {
		if r.Name == "" || r.Partition == "" || r.Fetch == nil || r.StorageKey == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidResource, r.Name)
		}
		if _, ok := names[r.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateResource, r.Name)
		}
		if other, ok := partitions[r.Partition]; ok {
			return nil, fmt.Errorf("%w: %s and %s both write partition %s", ErrDuplicateTarget, other, r.Name, r.Partition)
		}
		names[r.Name] = struct{}{}
		partitions[r.Partition] = r.Name
	}

	s := &SyncService{
		store:     st,
		resources: append([]Resource(nil), resources...),
		limit:     DefaultConcurrency,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resources returns the resource names in definition order.
func (s *SyncService) Resources() []string {
	out := make([]string, len(s.resources))
	for i, r := range s.resources {
		out[i] = r.Name
	}
	return out
}

// SyncAll runs one pass for principal. It never returns an error: failures
// are reported per resource in the Result.
func (s *SyncService) SyncAll(ctx context.Context, principal string) Result {
	res := Result{
		PassID:   uuid.New(),
		Outcomes: make(map[string]Outcome, len(s.resources)),
		Errors:   map[string]error{},
		Started:  s.now(),
	}
	logger := s.logger.With("pass_id", res.PassID.String())
	logger.Info(ctx, "sync pass started", "principal", principal, "resources", len(s.resources))

	// Each goroutine owns one slot of these slices.
	outcomes := make([]Outcome, len(s.resources))
	errs := make([]error, len(s.resources))

	var g errgroup.Group
	g.SetLimit(s.limit)
	for i := range s.resources {
		g.Go(func() error {
			outcomes[i], errs[i] = s.run(ctx, logger, s.resources[i], principal)
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range s.resources {
		res.Outcomes[r.Name] = outcomes[i]
		if errs[i] != nil {
			res.Errors[r.Name] = errs[i]
		}
	}
	res.Finished = s.now()

	metrics.SyncDuration.Observe(res.Finished.Sub(res.Started).Seconds())
	logger.Info(ctx, "sync pass finished", "principal", principal, "failed", res.Failed(), "duration", res.Finished.Sub(res.Started))
	return res
}

func (s *SyncService) run(ctx context.Context, logger logging.Logger, r Resource, principal string) (outcome Outcome, err error) {
	logger = logger.With("resource", r.Name)
	state := StatePending

	transition := func(next State) {
		state = next
		logger.Debug(ctx, "resource state", "state", state)
	}

	defer func() {
		if p := recover(); p != nil {
			outcome, err = OutcomeFailed, fmt.Errorf("panic while %s: %v", state, p)
		}

		switch outcome {
		case OutcomeSuccess:
			transition(StateSucceeded)
		case OutcomeSkipped:
			transition(StateSkipped)
		default:
			logger.Warn(ctx, "resource sync failed", "state", state, "error", err)
			transition(StateFailed)
		}
		metrics.SyncOutcomes.WithLabelValues(r.Name, string(outcome)).Inc()
	}()

	transition(StatePending)
	if r.Applies != nil && !r.Applies(principal) {
		return OutcomeSkipped, nil
	}

	transition(StateFetching)
	raw, err := r.Fetch(ctx, principal)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to fetch %s: %w", r.Name, err)
	}

	value := raw
	if r.Normalize != nil {
		transition(StateNormalizing)
		var report normalize.Report
		value, report, err = r.Normalize(raw)
		metrics.DefaultedFields.WithLabelValues(r.Name).Add(float64(report.Defaulted))
		if err != nil {
			return OutcomeFailed, fmt.Errorf("failed to normalize %s: %w", r.Name, err)
		}
		if report.Defaulted > 0 {
			logger.Debug(ctx, "fields defaulted", "count", report.Defaulted)
		}
	}

	transition(StateWriting)
	var stored any = Record{Data: value, Timestamp: s.now().UTC()}
	if r.Encode != nil {
		stored = r.Encode(value, s.now().UTC())
	}
	if _, err := s.store.Put(ctx, r.Partition, r.StorageKey(principal), stored); err != nil {
		return OutcomeFailed, err
	}
	return OutcomeSuccess, nil
}

// Watch runs a pass immediately and then every interval until ctx is done.
// Passes never overlap. onPass, if set, receives every result.
func (s *SyncService) Watch(ctx context.Context, principal string, interval time.Duration, onPass func(Result)) {
	pass := func() {
		res := s.SyncAll(ctx, principal)
		if onPass != nil {
			onPass(res)
		}
	}

	pass()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pass()
		case <-ctx.Done():
			return
		}
	}
}
