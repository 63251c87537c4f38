package httpx

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

	"github.com/hupe1980/campaignmesh/core"
)

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}))
	defer srv.Close()

	c := New(func(o *Options) { o.UserAgent = "test-agent" })

	var out struct {
		Status string `json:"status"`
	}
	err := c.GetJSON(context.Background(), srv.URL, http.Header{"X-Api-Key": {"secret"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Status)
}

func TestClient_SendJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["title"]})
	}))
	defer srv.Close()

	var out map[string]string
	err := New().SendJSON(context.Background(), http.MethodPost, srv.URL, nil, map[string]string{"title": "Hello"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Hello", out["echo"])
}

func TestClient_SendJSON_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var out map[string]any
	require.NoError(t, New().SendJSON(context.Background(), http.MethodDelete, srv.URL, nil, nil, &out))
	assert.Nil(t, out)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New()

	_, err := c.Get(context.Background(), srv.URL+"/missing", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = c.Get(context.Background(), srv.URL+"/fail", nil)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Contains(t, se.Body, "boom")
	assert.NotErrorIs(t, err, core.ErrNotFound)
}

func TestClient_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(func(o *Options) {
		o.RatePerSecond = 20
		o.Burst = 1
	})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.Get(context.Background(), srv.URL, nil)
		require.NoError(t, err)
	}

	// Two waits of 50ms each after the initial burst token.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestClient_RateLimitHonorsContext(t *testing.T) {
	c := New(func(o *Options) {
		o.RatePerSecond = 0.001
		o.Burst = 1
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	_, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = c.Get(ctx, srv.URL, nil)
	require.Error(t, err)
}
