package resources

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/consolecache/internal/hooks"
	"github.com/dmitrijs2005/consolecache/internal/models"
	"github.com/dmitrijs2005/consolecache/internal/normalize"
	"github.com/dmitrijs2005/consolecache/internal/remote"
	"github.com/dmitrijs2005/consolecache/internal/services"
	"github.com/dmitrijs2005/consolecache/internal/store"
)

// Catalog holds the hooks of every list resource and the sync definitions
// of every resource.
type Catalog struct {
	Licenses *hooks.Hook[models.License, models.LicenseStats]
	Sessions *hooks.Hook[models.Session, models.SessionStats]
	Reports  *hooks.Hook[models.Report, models.ReportStats]
	SubUsers *hooks.Hook[models.SubUser, models.SubUserStats]

	Registry *hooks.Registry
	profile  services.Resource
}

func endpoint(c remote.Client, path string) hooks.Fetcher {
	return func(ctx context.Context, principal string) (any, error) {
		return c.FetchJSON(ctx, path, principal)
	}
}

// NewCatalog builds every hook on deps. deps.Delegates is replaced: the
// delegates of a principal are its sub-users, read through the sub-user
// hook without writing the subusers partition.
func NewCatalog(c remote.Client, deps hooks.Deps) (*Catalog, error) {
	if deps.Fixtures == nil {
		deps.Fixtures = Fixture
	}

	var (
		cat Catalog
		err error
	)

	subDeps := deps
	subDeps.Delegates = nil
	cat.SubUsers, err = hooks.New(hooks.Definition[models.SubUser, models.SubUserStats]{
		Name:      PartitionSubUsers,
		Partition: PartitionSubUsers,
		Fetchers:  []hooks.Fetcher{endpoint(c, Endpoints.SubUsers)},
		Normalize: models.NormalizeSubUser,
		Owner:     func(u models.SubUser) string { return u.ParentEmail },
		Aggregate: models.AggregateSubUsers,
		Identity:  func(u models.SubUser) string { return known(u.SubUserEmail) },
	}, subDeps)
	if err != nil {
		return nil, err
	}

	deps.Delegates = func(ctx context.Context, principal string) ([]string, error) {
		res, err := cat.SubUsers.Read(ctx, principal)
		if err != nil {
			return nil, err
		}
		return models.Delegates(res.List, principal), nil
	}

	cat.Licenses, err = hooks.New(hooks.Definition[models.License, models.LicenseStats]{
		Name:      PartitionLicenses,
		Partition: PartitionLicenses,
		Fetchers: []hooks.Fetcher{
			endpoint(c, Endpoints.Licenses),
			endpoint(c, Endpoints.LicenseAssignments),
		},
		Normalize: models.NormalizeLicense,
		Owner:     func(l models.License) string { return l.UserEmail },
		Aggregate: models.AggregateLicenses,
		Identity:  func(l models.License) string { return known(l.LicenseID) },
	}, deps)
	if err != nil {
		return nil, err
	}

	cat.Sessions, err = hooks.New(hooks.Definition[models.Session, models.SessionStats]{
		Name:      PartitionSessions,
		Partition: PartitionSessions,
		Fetchers:  []hooks.Fetcher{endpoint(c, Endpoints.Sessions)},
		Normalize: models.NormalizeSession,
		Owner:     func(s models.Session) string { return s.UserEmail },
		Aggregate: models.AggregateSessions,
		Identity:  func(s models.Session) string { return known(s.SessionID) },
	}, deps)
	if err != nil {
		return nil, err
	}

	cat.Reports, err = hooks.New(hooks.Definition[models.Report, models.ReportStats]{
		Name:      PartitionReports,
		Partition: PartitionReports,
		Fetchers:  []hooks.Fetcher{endpoint(c, Endpoints.Reports)},
		Normalize: models.NormalizeReport,
		Owner:     func(r models.Report) string { return r.UserEmail },
		Aggregate: models.AggregateReports,
		Identity:  func(r models.Report) string { return known(r.ReportID) },
	}, deps)
	if err != nil {
		return nil, err
	}

	cat.Registry, err = hooks.NewRegistry(cat.Licenses, cat.Sessions, cat.Reports, cat.SubUsers)
	if err != nil {
		return nil, err
	}

	demo := deps.Demo
	cat.profile = services.Resource{
		Name:       PartitionProfile,
		Partition:  PartitionProfile,
		StorageKey: ProfileKey,
		Fetch:      endpoint(c, Endpoints.Profile),
		Normalize: func(raw any) (any, normalize.Report, error) {
			p, report := models.NormalizeProfile(raw)
			return p, report, nil
		},
		Applies: func(string) bool { return !demo },
	}

	return &cat, nil
}

// SyncResources lists what a sync pass pulls: every hook plus the profile.
func (c *Catalog) SyncResources() []services.Resource {
	return append(c.Registry.SyncResources(), c.profile)
}

// ProfileKey is the storage key of the synced profile of principal.
func ProfileKey(principal string) string {
	return PartitionProfile + "_" + strings.ToLower(strings.TrimSpace(principal))
}

// LoadProfile reads the profile written by the last successful sync.
func LoadProfile(ctx context.Context, st store.Store, principal string) (models.Profile, time.Time, bool, error) {
	rec, found, err := store.GetJSON[services.Record](ctx, st, PartitionProfile, ProfileKey(principal))
	if err != nil || !found {
		return models.Profile{}, time.Time{}, found, err
	}

	p, _ := models.NormalizeProfile(rec.Data)
	return p, rec.Timestamp, true, nil
}

func known(id string) string {
	if id == models.NotAvailable {
		return ""
	}
	return id
}
