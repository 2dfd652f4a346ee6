// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/enrich-engine/internal/gateway"
	"github.com/pdiddy/enrich-engine/pkg/types"
)

const litePage = `<html><body><table>
<tr><td><a rel="nofollow" class="result-link" href="https://en.wikipedia.org/wiki/David_Bowie">David Bowie - Wikipedia</a></td></tr>
<tr><td class="result-snippet">David Robert Jones, known as David Bowie, was an English singer &amp; songwriter.</td></tr>
<tr><td><a rel="nofollow" class="result-link" href="https://www.davidbowie.com/">David Bowie &#39;s official site</a></td></tr>
<tr><td class="result-snippet">The <b>official</b> website.</td></tr>
<tr><td><a rel="nofollow" class="result-link" href="https://www.davidbowie.com/">David Bowie official (duplicate)</a></td></tr>
</table></body></html>`

func testProvider(t *testing.T, endpoint string) *DuckDuckGo {
	t.Helper()
	gw, err := gateway.New(types.GatewayConfig{
		HTTPConfig:        types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"},
		RequestsPerMinute: 1000,
		RequestsPerHour:   10000,
		CacheTTL:          time.Minute,
		MaxRetries:        1,
		RetryDelay:        time.Millisecond,
	}, nil)
	require.NoError(t, err)
	d := NewDuckDuckGo(gw)
	d.Endpoint = endpoint
	return d
}

func TestSearchParsesResults(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "David Bowie", r.PostForm.Get("q"))
		w.Write([]byte(litePage))
	}))
	defer ts.Close()

	d := testProvider(t, ts.URL)
	results, err := d.Search(context.Background(), "David Bowie", 10)
	require.NoError(t, err)

	require.Len(t, results, 2, "duplicate links are collapsed")
	assert.Equal(t, "David Bowie - Wikipedia", results[0].Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/David_Bowie", results[0].Link)
	assert.Equal(t, "David Robert Jones, known as David Bowie, was an English singer & songwriter.", results[0].Snippet)
	assert.Equal(t, "en.wikipedia.org", results[0].Source)

	assert.Equal(t, "David Bowie 's official site", results[1].Title)
	assert.Equal(t, "The official website.", results[1].Snippet)
	assert.Equal(t, "davidbowie.com", results[1].Source)
}

func TestSearchLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(litePage))
	}))
	defer ts.Close()

	d := testProvider(t, ts.URL)
	results, err := d.Search(context.Background(), "bowie", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchEmptyQuery(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer ts.Close()

	d := testProvider(t, ts.URL)
	_, err := d.Search(context.Background(), "   ", 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestSearchUsesCache(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(litePage))
	}))
	defer ts.Close()

	d := testProvider(t, ts.URL)
	_, err := d.Search(context.Background(), "bowie", 10)
	require.NoError(t, err)
	_, err = d.Search(context.Background(), "bowie", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "repeat query is served from cache")
}

func TestSearchFallbackParse(t *testing.T) {
	page := `<html><body>
<a href="/settings">Settings</a>
<a href="https://duckduckgo.com/about">About</a>
<a href="https://en.wikipedia.org/wiki/Nico">Nico - Wikipedia</a>
</body></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer ts.Close()

	d := testProvider(t, ts.URL)
	results, err := d.Search(context.Background(), "nico", 10)
	require.NoError(t, err)

	require.Len(t, results, 1, "internal and relative links are skipped")
	assert.Equal(t, "Nico - Wikipedia", results[0].Title)
	assert.Equal(t, "en.wikipedia.org", results[0].Source)
}

func TestSearchNoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>No results.</body></html>"))
	}))
	defer ts.Close()

	d := testProvider(t, ts.URL)
	results, err := d.Search(context.Background(), "zzyzx", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
