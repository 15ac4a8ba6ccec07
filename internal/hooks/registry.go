package hooks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/consolecache/internal/services"
)

// View is a resolved resource with its record type erased, for callers
// that pick the resource by name.
type View struct {
	Resource  string    `json:"resource"`
	List      any       `json:"list"`
	Stats     any       `json:"stats"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
	Defaulted int       `json:"defaulted"`
}

// Resolver is the type-erased side of a Hook.
type Resolver interface {
	Name() string
	Partition() string
	Resolve(ctx context.Context, principal string) View
	Invalidate(ctx context.Context, principal string) error
	Purge(ctx context.Context) (int64, error)
	PurgeStale(ctx context.Context) (int64, error)
	SyncResource() services.Resource
}

var _ Resolver = (*Hook[struct{}, struct{}])(nil)

// Resolve is Get with the result wrapped in a View.
func (h *Hook[T, S]) Resolve(ctx context.Context, principal string) View {
	res := h.Get(ctx, principal)
	return View{
		Resource:  h.def.Name,
		List:      res.List,
		Stats:     res.Stats,
		Count:     len(res.List),
		Timestamp: res.Timestamp,
		Source:    res.Source,
		Defaulted: res.Defaulted,
	}
}

// Registry maps resource keys to hooks.
type Registry struct {
	hooks map[string]Resolver
	order []string
}

func NewRegistry(resolvers ...Resolver) (*Registry, error) {
	r := &Registry{hooks: make(map[string]Resolver, len(resolvers))}
	for _, res := range resolvers {
		key := strings.ToLower(res.Name())
		if _, ok := r.hooks[key]; ok {
			return nil, fmt.Errorf("%w: %s registered twice", ErrInvalidDefinition, res.Name())
		}
		r.hooks[key] = res
		r.order = append(r.order, res.Name())
	}
	return r, nil
}

// Lookup returns the hook registered under key (case-insensitive).
func (r *Registry) Lookup(key string) (Resolver, error) {
	res, ok := r.hooks[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, key)
	}
	return res, nil
}

// Resolve resolves resource key for principal. The only error is
// ErrUnknownResource; everything past the lookup degrades instead.
func (r *Registry) Resolve(ctx context.Context, key, principal string) (View, error) {
	res, err := r.Lookup(key)
	if err != nil {
		return View{}, err
	}
	return res.Resolve(ctx, principal), nil
}

// Names lists the registered resources in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// SyncResources returns the sync definition of every hook.
func (r *Registry) SyncResources() []services.Resource {
	out := make([]services.Resource, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.hooks[strings.ToLower(name)].SyncResource())
	}
	return out
}
