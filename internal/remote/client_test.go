package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/licenses", r.URL.Path)
		assert.Equal(t, "a@x.com", r.URL.Query().Get("email"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"L1","quantity":10}]}`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL+"/api/v1/", "tok")
	require.NoError(t, err)

	got, err := c.FetchJSON(context.Background(), "/licenses", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"items": []any{map[string]any{"id": "L1", "quantity": json.Number("10")}},
	}, got)
}

func TestFetchJSON_NoPrincipalNoToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, "")
	require.NoError(t, err)

	got, err := c.FetchJSON(context.Background(), "status", "")
	require.NoError(t, err)
	assert.Equal(t, []any{}, got)
}

func TestFetchJSON_APIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		is      error
	}{
		{"not found with message", http.StatusNotFound, `{"message":"no such user"}`, "no such user", nil},
		{"unauthorized", http.StatusUnauthorized, `{"error":"token expired"}`, "token expired", ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ``, "", ErrUnauthorized},
		{"unavailable", http.StatusServiceUnavailable, `maintenance`, "", ErrUnavailable},
		{"server error", http.StatusInternalServerError, `{"Detail":"boom"}`, "boom", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewHTTPClient(srv.URL, "tok")
			require.NoError(t, err)

			_, err = c.FetchJSON(context.Background(), "x", "a@x.com")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestFetchJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": [`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL, "tok")
	require.NoError(t, err)

	_, err = c.FetchJSON(context.Background(), "x", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode x")
}

func TestFetchJSON_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url, "tok")
	require.NoError(t, err)

	_, err = c.FetchJSON(context.Background(), "x", "")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, IsTransient(err))
}

func TestFetchJSON_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewHTTPClient(srv.URL, "tok", WithHTTPClient(&http.Client{}))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.FetchJSON(ctx, "slow", "")
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestNewHTTPClient_InvalidURL(t *testing.T) {
	_, err := NewHTTPClient("ftp://example.com", "")
	require.Error(t, err)

	_, err = NewHTTPClient("://bad", "")
	require.Error(t, err)
}
