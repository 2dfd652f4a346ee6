// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gateway

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/enrich-engine/pkg/types"
)

func testGatewayConfig() types.GatewayConfig {
	return types.GatewayConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "test/0.1",
		},
		RequestsPerMinute: 1000,
		RequestsPerHour:   10000,
		CacheTTL:          time.Minute,
		MaxRetries:        3,
		RetryDelay:        time.Millisecond,
	}
}

func TestFetchSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test/0.1", r.Header.Get("User-Agent"))
		assert.Equal(t, "bowie", r.URL.Query().Get("q"))
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	g, err := New(testGatewayConfig(), nil)
	require.NoError(t, err)

	body, err := g.Fetch(context.Background(), Request{
		URL:    ts.URL,
		Params: url.Values{"q": {"bowie"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), body)
}

func TestFetchPostForm(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Equal(t, "SELECT 1", r.PostForm.Get("query"))
		w.Write([]byte("{}"))
	}))
	defer ts.Close()

	g, err := New(testGatewayConfig(), nil)
	require.NoError(t, err)

	_, err = g.Fetch(context.Background(), Request{
		Method: http.MethodPost,
		URL:    ts.URL,
		Form:   url.Values{"query": {"SELECT 1"}},
	})
	require.NoError(t, err)
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	var buf bytes.Buffer
	g, err := New(testGatewayConfig(), &buf)
	require.NoError(t, err)

	body, err := g.Fetch(context.Background(), Request{URL: ts.URL})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), body)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Contains(t, buf.String(), "retrying")
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	g, err := New(testGatewayConfig(), nil)
	require.NoError(t, err)

	_, err = g.Fetch(context.Background(), Request{URL: ts.URL})
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.Status)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls), "initial attempt plus MaxRetries")
}

func TestFetchTransportFailure(t *testing.T) {
	g, err := New(testGatewayConfig(), nil)
	require.NoError(t, err)

	// Closed server: every attempt fails at the transport layer.
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := ts.URL
	ts.Close()

	_, err = g.Fetch(context.Background(), Request{URL: addr})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.Status)
	assert.Error(t, te.Err)
}

func TestFetchExponentialBackoffDelays(t *testing.T) {
	var stamps []time.Time
	var mu sync.Mutex
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	cfg := testGatewayConfig()
	cfg.MaxRetries = 3
	cfg.RetryDelay = 20 * time.Millisecond
	cfg.ExponentialBackoff = true

	g, err := New(cfg, nil)
	require.NoError(t, err)

	_, err = g.Fetch(context.Background(), Request{URL: ts.URL})
	require.Error(t, err)
	require.Len(t, stamps, 4)

	// Delays double: 20ms, 40ms, 80ms.
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 35*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[3].Sub(stamps[2]), 70*time.Millisecond)
}

func TestFetchJSONMalformedNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("not json"))
	}))
	defer ts.Close()

	g, err := New(testGatewayConfig(), nil)
	require.NoError(t, err)

	var v map[string]any
	err = g.FetchJSON(context.Background(), Request{URL: ts.URL}, &v)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "contract errors are not retried")
}

func TestCacheGetSetDefaultTTL(t *testing.T) {
	g, err := New(testGatewayConfig(), nil)
	require.NoError(t, err)

	key := Key("unit", "cache")
	_, ok := g.CacheGet(key)
	assert.False(t, ok)

	g.CacheSet(key, []byte("v"))
	got, ok := g.CacheGet(key)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestGatewayConcurrentSessions(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	g, err := New(testGatewayConfig(), nil)
	require.NoError(t, err)

	// Concurrent fetches and cache writes against the one shared instance.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := g.Fetch(context.Background(), Request{URL: ts.URL})
			assert.NoError(t, err)
			g.CacheSet(Key("concurrent", string(rune('a'+i%8))), []byte("v"))
			g.CacheGet(Key("concurrent", string(rune('a'+i%8))))
		}(i)
	}
	wg.Wait()
}
