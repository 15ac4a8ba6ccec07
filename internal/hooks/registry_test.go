package hooks

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/consolecache/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Resolve(t *testing.T) {
	f := &countingFetcher{payload: licensePayload()}
	h := newLicenseHook(t, Deps{Store: openStore(t)}, f.fetch)

	reg, err := NewRegistry(h)
	require.NoError(t, err)
	assert.Equal(t, []string{"licenses"}, reg.Names())

	v, err := reg.Resolve(context.Background(), "Licenses", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "licenses", v.Resource)
	assert.Equal(t, 2, v.Count)
	assert.Equal(t, SourceNetwork, v.Source)

	stats, ok := v.Stats.(models.LicenseStats)
	require.True(t, ok)
	assert.Equal(t, 2, stats.Total)

	_, err = reg.Resolve(context.Background(), "billing", "a@x.com")
	require.ErrorIs(t, err, ErrUnknownResource)

	assert.Len(t, reg.SyncResources(), 1)
}

func TestRegistry_Duplicate(t *testing.T) {
	st := openStore(t)
	a := newLicenseHook(t, Deps{Store: st}, (&countingFetcher{}).fetch)
	b := newLicenseHook(t, Deps{Store: st}, (&countingFetcher{}).fetch)

	_, err := NewRegistry(a, b)
	require.ErrorIs(t, err, ErrInvalidDefinition)
}
