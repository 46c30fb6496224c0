package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"parcelsales/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(url string) config.CrawlConfig {
	cfg := config.Default().Crawl
	cfg.BaseURL = url
	cfg.RetryBackoffSeconds = 0.001
	cfg.TimeoutSeconds = 2
	return cfg
}

func newFetcher(t *testing.T, cfg config.CrawlConfig) *HTTPFetcher {
	t.Helper()
	f, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	return f
}

func TestFetchSendsParcelAndJurisdiction(t *testing.T) {
	var got *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	body, err := newFetcher(t, testConfig(server.URL)).Fetch(context.Background(), "01-00001-000")
	require.NoError(t, err)
	assert.Equal(t, "<html><body>ok</body></html>", string(body))

	require.NotNil(t, got)
	q := got.URL.Query()
	assert.Equal(t, "01-00001-000", q.Get("parcelid"))
	assert.Equal(t, "Benton", q.Get("county"))
	assert.Equal(t, "Benton", q.Get("AISGIS"))
	assert.Equal(t, "Mozilla/5.0 (Windows NT 10.0; Win64; x64)", got.Header.Get("User-Agent"))
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("third time"))
	}))
	defer server.Close()

	body, err := newFetcher(t, testConfig(server.URL)).Fetch(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "third time", string(body))
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchGivesUpAfterAttemptBudget(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	body, err := newFetcher(t, testConfig(server.URL)).Fetch(context.Background(), "p1")
	assert.Nil(t, body)
	assert.ErrorIs(t, err, ErrFetchFailed)
	// permanent failures are retried like any other
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newFetcher(t, testConfig(url)).Fetch(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestFetchBackoffHonoursCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RetryBackoffSeconds = 3600

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newFetcher(t, cfg).Fetch(ctx, "p1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetchDecodesDeclaredCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1252")
		w.Write([]byte("<td>Jos\xe9</td>"))
	}))
	defer server.Close()

	body, err := newFetcher(t, testConfig(server.URL)).Fetch(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "<td>José</td>", string(body))
}

func TestRoundRobinProxySwitcher(t *testing.T) {
	_, err := RoundRobinProxySwitcher()
	assert.Error(t, err)

	p, err := RoundRobinProxySwitcher("http://127.0.0.1:1", "http://127.0.0.1:2")
	require.NoError(t, err)

	var hosts []string
	for i := 0; i < 3; i++ {
		u, err := p(nil)
		require.NoError(t, err)
		hosts = append(hosts, u.Host)
	}
	assert.Equal(t, []string{"127.0.0.1:1", "127.0.0.1:2", "127.0.0.1:1"}, hosts)
}
