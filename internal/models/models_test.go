package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/consolecache/internal/normalize"
	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow(t *testing.T) {
	t.Helper()
	orig := nowFunc
	nowFunc = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = orig })
}

func assertGolden(t *testing.T, name string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

func TestNormalizeSession_LegacyShape(t *testing.T) {
	fixedNow(t)

	s, report := NormalizeSession(map[string]any{
		"SessionId": "S1",
		"Email":     "a@x.com",
		"CreatedAt": "2024-01-01T00:00:00",
	})

	assert.Equal(t, "S1", s.SessionID)
	assert.Equal(t, "a@x.com", s.UserEmail)
	assert.Equal(t, "2024-01-01T00:00:00", s.LoginTime)
	assert.Nil(t, s.LogoutTime)
	assert.Equal(t, SessionActive, s.Status)
	assert.Equal(t, 3, report.Defaulted)
	assert.Equal(t, []string{"ip_address", "device_info", "activity_details"}, report.Fields)

	assertGolden(t, "session_legacy_shape", s)
}

func TestNormalizeSession_StatusDerivation(t *testing.T) {
	s, _ := NormalizeSession(map[string]any{"session_id": "S2", "logoutTime": "2024-01-01T01:00:00"})
	assert.Equal(t, SessionClosed, s.Status)
	require.NotNil(t, s.LogoutTime)
	assert.Equal(t, "2024-01-01T01:00:00", *s.LogoutTime)

	s, _ = NormalizeSession(map[string]any{"session_id": "S3", "State": "Logged Out"})
	assert.Equal(t, SessionClosed, s.Status)
}

func TestNormalizeSession_ActivityDetailsFromString(t *testing.T) {
	s, report := NormalizeSession(map[string]any{
		"session_id":      "S4",
		"activityDetails": `{"pages": 3}`,
	})

	assert.Equal(t, map[string]any{"pages": json.Number("3")}, s.ActivityDetails)
	assert.NotContains(t, report.Fields, "activity_details")
}

func TestNormalizeSession_EmptyRecordNeverFails(t *testing.T) {
	fixedNow(t)

	s, report := NormalizeSession(nil)
	assert.Equal(t, NotAvailable, s.SessionID)
	assert.Equal(t, "2024-06-01T12:00:00", s.LoginTime)
	assert.Equal(t, Unknown, s.DeviceInfo)
	assert.Equal(t, map[string]any{}, s.ActivityDetails)
	assert.Equal(t, 6, report.Defaulted)
}

func TestNormalizeLicenses_MixedShapes(t *testing.T) {
	fixedNow(t)

	payload := map[string]any{"items": []any{
		map[string]any{
			"LicenseId":     "L1",
			"LicenseKey":    "K-1",
			"Email":         "a@x.com",
			"ProductName":   "Drive Eraser",
			"Status":        "In Use",
			"TotalLicenses": json.Number("10"),
			"UsedLicenses":  json.Number("4"),
			"PurchaseDate":  "2024-03-01T10:00:00",
			"ExpiresAt":     "2025-03-01T10:00:00",
		},
		map[string]any{"id": "L2", "owner": "b@x.com", "state": "expired"},
	}}

	list, report := NormalizeAll(payload, NormalizeLicense)
	require.Len(t, list, 2)

	assertGolden(t, "licenses_mixed_shapes", struct {
		List   []License        `json:"list"`
		Stats  LicenseStats     `json:"stats"`
		Report normalize.Report `json:"report"`
	}{list, AggregateLicenses(list), report})
}

func TestAggregateLicenses_KeepsBucketsSeparate(t *testing.T) {
	list := []License{
		{Status: LicenseActive, Quantity: 2},
		{Status: LicenseInUse, Quantity: 1, Used: 1},
		{Status: LicenseInUse},
		{Status: LicenseInactive},
		{Status: "suspended"},
	}

	assert.Equal(t, LicenseStats{
		Total:     5,
		Active:    1,
		InUse:     2,
		Inactive:  1,
		Other:     1,
		Seats:     3,
		SeatsUsed: 1,
	}, AggregateLicenses(list))
}

func TestNormalizeReports_Hierarchy(t *testing.T) {
	payload := `[{"year":2024,"months":[{"month":1,"records":[
		{"reportId":"R1","userEmail":"a@x.com","status":"Success","devices":3},
		{"reportId":"R2","userEmail":"a@x.com","status":"error","devices":"1"}
	]},{"month":2,"records":[
		{"reportId":"R3","userEmail":"b@x.com","result":"pending"}
	]}]}]`

	list, _ := NormalizeAll(payload, NormalizeReport)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"R1", "R2", "R3"}, []string{list[0].ReportID, list[1].ReportID, list[2].ReportID})

	assert.Equal(t, ReportStats{Total: 3, Completed: 1, Failed: 1, Other: 1, Devices: 4}, AggregateReports(list))
}

func TestNormalizeProfile_Envelope(t *testing.T) {
	p, _ := NormalizeProfile(`{"user":{"Email":"a@x.com","FullName":"Ann","Company":"Acme"}}`)
	assert.Equal(t, "a@x.com", p.UserEmail)
	assert.Equal(t, "Ann", p.Name)
	assert.Equal(t, "Acme", p.Company)
	assert.Equal(t, "UTC", p.Timezone)

	p, _ = NormalizeProfile(map[string]any{"email": "b@x.com", "user": "bee"})
	assert.Equal(t, "b@x.com", p.UserEmail)
}

func TestDelegates(t *testing.T) {
	list, _ := NormalizeAll([]any{
		map[string]any{"email": "s1@x.com", "parentEmail": "A@x.com"},
		map[string]any{"email": "s2@x.com", "parentEmail": "other@x.com"},
		map[string]any{"parentEmail": "a@x.com"},
	}, NormalizeSubUser)

	assert.Equal(t, []string{"s1@x.com"}, Delegates(list, " a@x.com "))
	assert.Equal(t, SubUserStats{Total: 3, Active: 3}, AggregateSubUsers(list))
}

// Feeding a canonical record back through its normalizer must return it
// unchanged and default nothing.
func TestNormalizersAreIdempotent(t *testing.T) {
	fixedNow(t)

	check := func(t *testing.T, first any, again func(map[string]any) (any, normalize.Report)) {
		t.Helper()
		second, report := again(normalize.ToMap(first))
		assert.Zero(t, report.Defaulted, "fields %v", report.Fields)
		if diff := cmp.Diff(normalize.ToMap(first), normalize.ToMap(second)); diff != "" {
			t.Errorf("not idempotent (-first +second):\n%s", diff)
		}
	}

	raws := []map[string]any{
		{"SessionId": "S1", "Email": "a@x.com", "CreatedAt": "2024-01-01T00:00:00"},
		{"id": "x", "ended_at": "2024-01-02T00:00:00", "activity": map[string]any{"k": "v"}},
		{},
	}

	for _, raw := range raws {
		s, _ := NormalizeSession(raw)
		check(t, s, func(m map[string]any) (any, normalize.Report) { return NormalizeSession(m) })

		l, _ := NormalizeLicense(raw)
		check(t, l, func(m map[string]any) (any, normalize.Report) { return NormalizeLicense(m) })

		r, _ := NormalizeReport(raw)
		check(t, r, func(m map[string]any) (any, normalize.Report) { return NormalizeReport(m) })

		u, _ := NormalizeSubUser(raw)
		check(t, u, func(m map[string]any) (any, normalize.Report) { return NormalizeSubUser(m) })

		p, _ := NormalizeProfile(raw)
		check(t, p, func(m map[string]any) (any, normalize.Report) { return NormalizeProfile(m) })
	}
}
