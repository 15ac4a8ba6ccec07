package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/consolecache/internal/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu       sync.Mutex
	payloads map[string]any
	failing  map[string]bool
	calls    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		payloads: map[string]any{
			resources.Endpoints.Licenses: []any{
				map[string]any{"license_id": "L1", "user_email": "a@x.com", "status": "active"},
				map[string]any{"license_id": "L2", "user_email": "b@x.com", "status": "active"},
			},
			resources.Endpoints.LicenseAssignments: []any{},
			resources.Endpoints.Sessions:           []any{map[string]any{"session_id": "S1", "user_email": "a@x.com"}},
			resources.Endpoints.Reports:            []any{},
			resources.Endpoints.SubUsers:           []any{},
			resources.Endpoints.Profile:            map[string]any{"email": "a@x.com", "name": "Ann"},
		},
		failing: map[string]bool{},
	}
}

func (f *fakeAPI) FetchJSON(ctx context.Context, path string, principal string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing[path] {
		return nil, errors.New("boom")
	}
	return f.payloads[path], nil
}

type harness struct {
	dsn string
	api *fakeAPI
	env map[string]string
}

func newHarness(t *testing.T) *harness {
	return &harness{
		dsn: filepath.Join(t.TempDir(), "cache.db"),
		api: newFakeAPI(),
		env: map[string]string{},
	}
}

func (h *harness) exec(t *testing.T, args ...string) (string, error) {
	t.Helper()

	opts := &RootOptions{
		Client: h.api,
		Env: func(k string) (string, bool) {
			v, ok := h.env[k]
			return v, ok
		},
	}
	cmd := NewRootCommand(opts)

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(args, "--store-dsn", h.dsn))

	err := cmd.Execute()
	return out.String(), err
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestResolve_Demo(t *testing.T) {
	h := newHarness(t)

	out, err := h.exec(t, "resolve", "licenses", "--demo")
	require.NoError(t, err)

	v := decode[map[string]any](t, out)
	assert.Equal(t, "demo", v["source"])
	assert.EqualValues(t, 4, v["count"])
	assert.Zero(t, h.api.calls)
}

func TestResolve_CachesAndFilters(t *testing.T) {
	h := newHarness(t)

	out, err := h.exec(t, "resolve", "licenses", "--principal", "a@x.com")
	require.NoError(t, err)
	v := decode[map[string]any](t, out)
	assert.Equal(t, "network", v["source"])
	assert.EqualValues(t, 1, v["count"])

	calls := h.api.calls
	out, err = h.exec(t, "resolve", "LICENSES", "--principal", "A@x.com")
	require.NoError(t, err)
	v = decode[map[string]any](t, out)
	assert.Equal(t, "cache", v["source"])
	assert.Equal(t, calls, h.api.calls)
}

func TestResolve_Errors(t *testing.T) {
	h := newHarness(t)

	_, err := h.exec(t, "resolve", "billing", "--principal", "a@x.com")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorContains(t, err, "licenses, sessions, reports, subusers")

	_, err = h.exec(t, "resolve", "licenses")
	assert.ErrorIs(t, err, ErrNoPrincipal)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = h.exec(t, "resolve", "licenses", "--concurrency", "0")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSync_ReportsPerResource(t *testing.T) {
	h := newHarness(t)
	h.env["CONSOLECACHE_PRINCIPAL"] = "a@x.com"

	out, err := h.exec(t, "sync")
	require.NoError(t, err)

	r := decode[passReport](t, out)
	assert.Equal(t, map[string]bool{
		"licenses": true, "sessions": true, "reports": true, "subusers": true, "profile": true,
	}, r.Results)
	assert.NotEmpty(t, r.PassID)

	out, err = h.exec(t, "profile")
	require.NoError(t, err)
	assert.Contains(t, out, `"name":"Ann"`)
}

func TestSync_FailureExitCode(t *testing.T) {
	h := newHarness(t)
	h.api.failing[resources.Endpoints.Reports] = true

	out, err := h.exec(t, "sync", "--principal", "a@x.com")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	r := decode[passReport](t, out)
	assert.False(t, r.Results["reports"])
	assert.True(t, r.Results["sessions"])
	assert.Contains(t, r.Errors, "reports")
}

func TestSync_DemoSkipsEverything(t *testing.T) {
	h := newHarness(t)

	out, err := h.exec(t, "sync", "--demo")
	require.NoError(t, err)

	r := decode[passReport](t, out)
	assert.Empty(t, r.Results)
	assert.Len(t, r.Skipped, 5)
	assert.Zero(t, h.api.calls)
}

func TestProfile_NotSynced(t *testing.T) {
	h := newHarness(t)

	_, err := h.exec(t, "profile", "--principal", "a@x.com")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestClear_EmptiesEveryPartition(t *testing.T) {
	h := newHarness(t)

	_, err := h.exec(t, "sync", "--principal", "a@x.com")
	require.NoError(t, err)

	out, err := h.exec(t, "partitions")
	require.NoError(t, err)
	assert.Contains(t, out, "licenses_v1_a@x.com")

	_, err = h.exec(t, "clear")
	require.NoError(t, err)

	out, err = h.exec(t, "partitions")
	require.NoError(t, err)
	parts := decode[[]partitionInfo](t, out)
	assert.Len(t, parts, len(resources.Schema.Partitions))
	for _, p := range parts {
		assert.Empty(t, p.Keys, p.Name)
	}
}

func TestInvalidateAndPurge(t *testing.T) {
	h := newHarness(t)

	_, err := h.exec(t, "sync", "--principal", "a@x.com")
	require.NoError(t, err)

	_, err = h.exec(t, "invalidate", "sessions", "--principal", "a@x.com")
	require.NoError(t, err)

	out, err := h.exec(t, "partitions")
	require.NoError(t, err)
	assert.NotContains(t, out, "sessions_v1_a@x.com")

	out, err = h.exec(t, "purge", "--stale")
	require.NoError(t, err)
	for _, r := range decode[[]purgeResult](t, out) {
		assert.Zero(t, r.Deleted, r.Resource)
	}

	out, err = h.exec(t, "purge", "licenses")
	require.NoError(t, err)
	assert.Equal(t, []purgeResult{{Resource: "licenses", Deleted: 1}}, decode[[]purgeResult](t, out))
}

func TestSnapshot_RoundTrip(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	h.env["CONSOLECACHE_SNAPSHOT_PASSPHRASE"] = "pass"

	_, err := h.exec(t, "sync", "--principal", "a@x.com")
	require.NoError(t, err)

	out, err := h.exec(t, "snapshot", "export", "--dir", dir)
	require.NoError(t, err)
	exported := decode[map[string]any](t, out)
	loc := exported["location"].(string)
	assert.True(t, strings.HasPrefix(loc, dir))
	assert.EqualValues(t, 5, exported["records"])

	_, err = h.exec(t, "clear")
	require.NoError(t, err)

	_, err = h.exec(t, "snapshot", "import", loc, "--passphrase", "wrong")
	assert.Error(t, err)

	out, err = h.exec(t, "snapshot", "import", loc)
	require.NoError(t, err)
	assert.EqualValues(t, 5, decode[map[string]any](t, out)["restored"])

	out, err = h.exec(t, "profile", "--principal", "a@x.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Ann")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("x")))
	assert.Equal(t, ExitCommandError, GetExitCode(WrapExitError(ExitCommandError, "bad", errors.New("x"))))
}
