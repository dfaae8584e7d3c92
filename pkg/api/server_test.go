package api

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_Metrics(t *testing.T) {
	env := setupTestServer(t, ServerConfig{})

	env.get(t, "/api/v1/health")
	env.get(t, "/api/v1/reads/"+env.readIDs[0])
	env.get(t, "/api/v1/reads/missing")

	m := env.server.metrics
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/health", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/reads/{id}", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.readOperationsTotal.WithLabelValues("get", statusSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.readOperationsTotal.WithLabelValues("get", statusError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.healthChecksTotal.WithLabelValues(statusSuccess)))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "slow5_http_requests_total")
}

func TestRouter_APIKey(t *testing.T) {
	env := setupTestServer(t, ServerConfig{APIKey: "secret"})

	w, _ := env.get(t, "/api/v1/header")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/header", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// metrics stay open for scraping
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CORS(t *testing.T) {
	env := setupTestServer(t, ServerConfig{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ConcurrentRequests(t *testing.T) {
	env := setupTestServer(t, ServerConfig{})
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func(i int) {
			resp, err := http.Get(srv.URL + "/api/v1/reads/" + env.readIDs[i%len(env.readIDs)])
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				errs <- assert.AnError
				t.Logf("status %d: %s", resp.StatusCode, body)
				return
			}
			errs <- nil
		}(i)
	}
	for i := 0; i < 20; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestStartServer(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	env := setupTestServer(t, ServerConfig{Bind: "127.0.0.1", Port: port})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- StartServer(ctx, env.server, env.registry) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/api/v1/health", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
