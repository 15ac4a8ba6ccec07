package hooks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/consolecache/internal/logging"
	"github.com/dmitrijs2005/consolecache/internal/metrics"
	"github.com/dmitrijs2005/consolecache/internal/normalize"
	"github.com/dmitrijs2005/consolecache/internal/services"
	"github.com/dmitrijs2005/consolecache/internal/store"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownResource   = errors.New("unknown resource")
	ErrInvalidDefinition = errors.New("invalid hook definition")
)

// DefaultCacheVersion is used when Deps.CacheVersion is empty.
const DefaultCacheVersion = "v1"

// Source tells where a Result came from.
type Source string

const (
	SourceDemo    Source = "demo"
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
	// SourcePartial is a network result assembled while at least one
	// fetcher failed. Partial results are not written back.
	SourcePartial Source = "partial"
)

// Fetcher returns one raw payload for principal.
type Fetcher func(ctx context.Context, principal string) (any, error)

// DelegateFunc lists the sub-principals whose records principal may see.
// An error means the list is unknown; results filtered without it are
// partial.
type DelegateFunc func(ctx context.Context, principal string) ([]string, error)

// FixtureFunc returns the demo payload of a resource.
type FixtureFunc func(name string) (any, bool)

// Definition describes one resource. Records are built by Normalize from
// every record of every fetcher payload, in fetcher order.
type Definition[T any, S any] struct {
	Name      string
	Partition string
	Fetchers  []Fetcher
	Normalize func(raw map[string]any) (T, normalize.Report)
	// Owner returns the principal a record belongs to.
	Owner     func(T) string
	Aggregate func([]T) S
	// Identity is optional. Records with an equal non-empty identity are
	// kept once (first wins), so overlapping endpoints can be merged.
	Identity func(T) string
}

// Deps are shared by every hook of an application.
type Deps struct {
	Store        store.Store
	Policy       *Policy
	Delegates    DelegateFunc
	Demo         bool
	Fixtures     FixtureFunc
	CacheVersion string
	Logger       logging.Logger
}

// Result is what a hook hands to the caller. List is never nil.
type Result[T any, S any] struct {
	List      []T       `json:"list"`
	Stats     S         `json:"stats"`
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
	Defaulted int       `json:"defaulted"`
}

// cachedValue is the stored form. Pointers tell a missing list or stats
// apart from an empty one.
type cachedValue[T any, S any] struct {
	List      *[]T      `json:"list"`
	Stats     *S        `json:"stats"`
	Timestamp time.Time `json:"timestamp"`
}

type fetched struct {
	principal string
	payloads  []any
	errs      []error
	delegates []string
}

type Hook[T any, S any] struct {
	def  Definition[T, S]
	deps Deps
	now  func() time.Time
}

func New[T any, S any](def Definition[T, S], deps Deps) (*Hook[T, S], error) {
	switch {
	case def.Name == "", def.Partition == "":
		return nil, fmt.Errorf("%w: name and partition are required", ErrInvalidDefinition)
	case def.Normalize == nil, def.Owner == nil, def.Aggregate == nil:
		return nil, fmt.Errorf("%w: %s: normalize, owner and aggregate are required", ErrInvalidDefinition, def.Name)
	case len(def.Fetchers) == 0:
		return nil, fmt.Errorf("%w: %s: no fetchers", ErrInvalidDefinition, def.Name)
	}

	if deps.CacheVersion == "" {
		deps.CacheVersion = DefaultCacheVersion
	}
	if strings.Contains(deps.CacheVersion, "_") {
		return nil, fmt.Errorf("%w: cache version %q must not contain '_'", ErrInvalidDefinition, deps.CacheVersion)
	}
	if deps.Policy == nil {
		deps.Policy = MustPolicy(DefaultPolicy)
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}

	return &Hook[T, S]{def: def, deps: deps, now: time.Now}, nil
}

func (h *Hook[T, S]) Name() string { return h.def.Name }

func (h *Hook[T, S]) Partition() string { return h.def.Partition }

// prefix is shared by every slot of the current cache version.
func (h *Hook[T, S]) prefix() string {
	return h.def.Name + "_" + h.deps.CacheVersion + "_"
}

// Key is the cache slot of principal: name_version_principal.
func (h *Hook[T, S]) Key(principal string) string {
	return h.prefix() + canonicalPrincipal(principal)
}

// Get resolves the resource for principal. It never fails.
func (h *Hook[T, S]) Get(ctx context.Context, principal string) (res Result[T, S]) {
	logger := h.deps.Logger.With("resource", h.def.Name, "principal", principal)

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "resolve panicked", "panic", p)
			metrics.SwallowedErrors.WithLabelValues(h.def.Name, "panic").Inc()
			res = h.empty(SourcePartial)
		}
	}()

	if h.deps.Demo {
		metrics.CacheLookups.WithLabelValues(h.def.Name, "demo").Inc()
		return h.demo(ctx, logger)
	}

	key := h.Key(principal)
	if cached, ok := h.lookup(ctx, logger, key); ok {
		return cached
	}

	f := h.fetch(ctx, logger, principal)
	res, report := h.assemble(ctx, logger, f)
	metrics.DefaultedFields.WithLabelValues(h.def.Name).Add(float64(report.Defaulted))

	if len(f.errs) > 0 {
		res.Source = SourcePartial
		logger.Warn(ctx, "partial result not cached", "failed_fetchers", len(f.errs))
		return res
	}

	if _, err := h.deps.Store.Put(ctx, h.def.Partition, key, h.toCached(res)); err != nil {
		logger.Warn(ctx, "cache write failed, proceeding without caching", "error", err)
		metrics.SwallowedErrors.WithLabelValues(h.def.Name, "write").Inc()
	}
	return res
}

// Read resolves principal like Get but never writes the cache, and
// returns fetch failures instead of degrading. It serves lookups made on
// behalf of other resources, which must not write this hook's partition.
func (h *Hook[T, S]) Read(ctx context.Context, principal string) (res Result[T, S], err error) {
	logger := h.deps.Logger.With("resource", h.def.Name, "principal", principal)

	defer func() {
		if p := recover(); p != nil {
			res, err = h.empty(SourcePartial), fmt.Errorf("read %s panicked: %v", h.def.Name, p)
		}
	}()

	if h.deps.Demo {
		return h.demo(ctx, logger), nil
	}
	if cached, ok := h.lookup(ctx, logger, h.Key(principal)); ok {
		return cached, nil
	}

	f := h.fetch(ctx, logger, principal)
	if len(f.errs) > 0 {
		return h.empty(SourcePartial), errors.Join(f.errs...)
	}
	res, _ = h.assemble(ctx, logger, f)
	return res, nil
}

func (h *Hook[T, S]) empty(source Source) Result[T, S] {
	return Result[T, S]{
		List:      []T{},
		Stats:     h.def.Aggregate([]T{}),
		Timestamp: h.now().UTC(),
		Source:    source,
	}
}

func (h *Hook[T, S]) demo(ctx context.Context, logger logging.Logger) Result[T, S] {
	if h.deps.Fixtures == nil {
		return h.empty(SourceDemo)
	}
	payload, ok := h.deps.Fixtures(h.def.Name)
	if !ok {
		logger.Debug(ctx, "no demo fixture")
		return h.empty(SourceDemo)
	}

	res := h.empty(SourceDemo)
	for _, raw := range normalize.Flatten(payload) {
		rec, r := h.def.Normalize(raw)
		res.List = append(res.List, rec)
		res.Defaulted += r.Defaulted
	}
	res.Stats = h.def.Aggregate(res.List)
	return res
}

// lookup returns the cached result when it is present and carries both
// list and stats. Read errors count as a miss.
func (h *Hook[T, S]) lookup(ctx context.Context, logger logging.Logger, key string) (Result[T, S], bool) {
	c, found, err := store.GetJSON[cachedValue[T, S]](ctx, h.deps.Store, h.def.Partition, key)
	switch {
	case err != nil:
		logger.Warn(ctx, "cache read failed", "key", key, "error", err)
		metrics.SwallowedErrors.WithLabelValues(h.def.Name, "read").Inc()
		metrics.CacheLookups.WithLabelValues(h.def.Name, "invalid").Inc()
		return Result[T, S]{}, false
	case !found:
		metrics.CacheLookups.WithLabelValues(h.def.Name, "miss").Inc()
		return Result[T, S]{}, false
	case c.List == nil || c.Stats == nil:
		logger.Debug(ctx, "cached value is incomplete", "key", key)
		metrics.CacheLookups.WithLabelValues(h.def.Name, "invalid").Inc()
		return Result[T, S]{}, false
	}

	metrics.CacheLookups.WithLabelValues(h.def.Name, "hit").Inc()
	logger.Debug(ctx, "cache hit", "key", key)
	return Result[T, S]{List: *c.List, Stats: *c.Stats, Timestamp: c.Timestamp, Source: SourceCache}, true
}

// fetch runs every fetcher concurrently. Errors and panics are collected,
// never returned early, so one failing endpoint does not hide the others.
func (h *Hook[T, S]) fetch(ctx context.Context, logger logging.Logger, principal string) fetched {
	payloads := make([]any, len(h.def.Fetchers))
	errs := make([]error, len(h.def.Fetchers))

	var g errgroup.Group
	for i, fetch := range h.def.Fetchers {
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					errs[i] = fmt.Errorf("fetcher %d panicked: %v", i, p)
				}
			}()
			payloads[i], errs[i] = fetch(ctx, principal)
			return nil
		})
	}
	_ = g.Wait()

	f := fetched{principal: principal}
	for i := range h.def.Fetchers {
		if errs[i] != nil {
			logger.Warn(ctx, "fetch failed", "fetcher", i, "error", errs[i])
			metrics.SwallowedErrors.WithLabelValues(h.def.Name, "fetch").Inc()
			f.errs = append(f.errs, errs[i])
			continue
		}
		f.payloads = append(f.payloads, payloads[i])
	}

	if h.deps.Delegates != nil {
		delegates, err := h.deps.Delegates(ctx, principal)
		if err != nil {
			logger.Warn(ctx, "delegate lookup failed", "error", err)
			metrics.SwallowedErrors.WithLabelValues(h.def.Name, "delegates").Inc()
			f.errs = append(f.errs, fmt.Errorf("failed to resolve delegates: %w", err))
		}
		f.delegates = delegates
	}
	return f
}

// assemble is pure: flatten, normalize, dedupe, filter, aggregate.
func (h *Hook[T, S]) assemble(ctx context.Context, logger logging.Logger, f fetched) (Result[T, S], normalize.Report) {
	var report normalize.Report
	res := h.empty(SourceNetwork)
	seen := map[string]struct{}{}

	for _, payload := range f.payloads {
		for _, raw := range normalize.Flatten(payload) {
			rec, r := h.def.Normalize(raw)
			report.Merge(r)

			if h.def.Identity != nil {
				if id := h.def.Identity(rec); id != "" {
					if _, dup := seen[id]; dup {
						continue
					}
					seen[id] = struct{}{}
				}
			}

			ok, err := h.deps.Policy.Allows(h.def.Owner(rec), f.principal, f.delegates)
			if err != nil {
				logger.Warn(ctx, "access policy failed, record hidden", "error", err)
			}
			if ok {
				res.List = append(res.List, rec)
			}
		}
	}

	res.Stats = h.def.Aggregate(res.List)
	res.Defaulted = report.Defaulted
	return res, report
}

func (h *Hook[T, S]) toCached(res Result[T, S]) cachedValue[T, S] {
	list, stats := res.List, res.Stats
	return cachedValue[T, S]{List: &list, Stats: &stats, Timestamp: res.Timestamp}
}

// Invalidate drops the cache slot of principal.
func (h *Hook[T, S]) Invalidate(ctx context.Context, principal string) error {
	return h.deps.Store.Delete(ctx, h.def.Partition, h.Key(principal))
}

// Purge drops every slot of the current cache version.
func (h *Hook[T, S]) Purge(ctx context.Context) (int64, error) {
	return h.deps.Store.DeleteByPrefix(ctx, h.def.Partition, h.prefix())
}

// PurgeStale drops the slots written under any other cache version.
func (h *Hook[T, S]) PurgeStale(ctx context.Context) (int64, error) {
	keys, err := h.deps.Store.Keys(ctx, h.def.Partition, h.def.Name+"_")
	if err != nil {
		return 0, err
	}

	current := h.prefix()
	stale := map[string]struct{}{}
	for _, k := range keys {
		if strings.HasPrefix(k, current) {
			continue
		}
		rest := strings.TrimPrefix(k, h.def.Name+"_")
		if i := strings.Index(rest, "_"); i > 0 {
			stale[h.def.Name+"_"+rest[:i+1]] = struct{}{}
		}
	}

	var total int64
	for prefix := range stale {
		n, err := h.deps.Store.DeleteByPrefix(ctx, h.def.Partition, prefix)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// SyncResource exposes the hook to the sync orchestrator. A pass writes
// the same slot Get reads, so syncing after login pre-warms every hook.
// A pass fails when any fetcher fails, and is skipped in demo mode.
func (h *Hook[T, S]) SyncResource() services.Resource {
	logger := h.deps.Logger.With("resource", h.def.Name)

	return services.Resource{
		Name:       h.def.Name,
		Partition:  h.def.Partition,
		StorageKey: h.Key,
		Applies:    func(string) bool { return !h.deps.Demo },
		Fetch: func(ctx context.Context, principal string) (any, error) {
			f := h.fetch(ctx, logger, principal)
			if err := errors.Join(f.errs...); err != nil {
				return nil, err
			}
			return f, nil
		},
		Normalize: func(raw any) (any, normalize.Report, error) {
			f, ok := raw.(fetched)
			if !ok {
				return nil, normalize.Report{}, fmt.Errorf("unexpected payload %T", raw)
			}
			res, report := h.assemble(context.Background(), logger, f)
			return h.toCached(res), report, nil
		},
		Encode: func(value any, syncedAt time.Time) any {
			c, ok := value.(cachedValue[T, S])
			if !ok {
				return value
			}
			c.Timestamp = syncedAt
			return c
		},
	}
}
