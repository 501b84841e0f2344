package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/planloft/internal/engine"
	"github.com/Faultbox/planloft/internal/engine/cache"
	"github.com/Faultbox/planloft/internal/engine/dispatch"
	"github.com/Faultbox/planloft/internal/engine/mesh"
	"github.com/Faultbox/planloft/internal/metrics"
	"github.com/Faultbox/planloft/pkg/math"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.RateLimit = 0
	return cfg
}

func testServer(t *testing.T, store cache.Store, cfg Config) *Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	collector := metrics.New("planloft", reg)

	eng := engine.New(engine.Config{
		CacheBound: 16,
		Dispatch:   dispatch.Config{Workers: 2, QueueSize: 16, Timeout: 10 * time.Second},
	}, store, collector, nil)
	t.Cleanup(func() { eng.Close() })

	return New(eng, store, reg, cfg, nil)
}

func roomRequest(id string) dispatch.Request {
	return dispatch.Request{
		CorrelationID: id,
		ElementSpec: mesh.ElementSpec{
			ID:     "room-1",
			Points: []math.Vec2{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 3}, {X: 0, Y: 3}},
			Form:   mesh.FormExtrusion,
			Kind:   mesh.KindSolid,
			Height: 2.5,
		},
		Options: mesh.Options{Quality: mesh.QualityLow},
	}
}

func postGenerate(t *testing.T, h http.Handler, body []byte) (*httptest.ResponseRecorder, dispatch.Response) {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var resp dispatch.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "response body: %s", w.Body.String())
	return w, resp
}

func TestGenerateEndpoint(t *testing.T) {
	srv := testServer(t, nil, testConfig())

	body, err := json.Marshal(roomRequest("req-1"))
	require.NoError(t, err)

	w, resp := postGenerate(t, srv.Handler(), body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.True(t, resp.Success)
	assert.Equal(t, "req-1", resp.CorrelationID)
	require.NotNil(t, resp.Data)

	buf, err := resp.Buffer()
	require.NoError(t, err)
	require.NoError(t, buf.Validate())
	assert.Greater(t, buf.VertexCount(), 0)
	assert.Greater(t, buf.TriangleCount(), 0)
	assert.InDelta(t, 2.5, resp.Data.BoundsMax[1], 1e-4)
}

func TestGenerateEndpointAssignsCorrelationID(t *testing.T) {
	srv := testServer(t, nil, testConfig())

	body, err := json.Marshal(roomRequest(""))
	require.NoError(t, err)

	w, resp := postGenerate(t, srv.Handler(), body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.CorrelationID)
}

func TestGenerateEndpointMalformedJSON(t *testing.T) {
	srv := testServer(t, nil, testConfig())

	w, resp := postGenerate(t, srv.Handler(), []byte("{"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "decoding request")
}

func TestGenerateEndpointRejectsBadElement(t *testing.T) {
	srv := testServer(t, nil, testConfig())

	req := roomRequest("req-2")
	req.Points = req.Points[:2]
	body, err := json.Marshal(req)
	require.NoError(t, err)

	w, resp := postGenerate(t, srv.Handler(), body)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "req-2", resp.CorrelationID)
	assert.NotEmpty(t, resp.Error)
}

func TestGenerateEndpointWorkerFailure(t *testing.T) {
	srv := testServer(t, nil, testConfig())

	// Four coincident points pass static validation but collapse to a
	// single distinct point inside the worker.
	req := roomRequest("req-3")
	req.Points = []math.Vec2{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	w, resp := postGenerate(t, srv.Handler(), body)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "worker failure")
}

func TestHealthzWithoutStore(t *testing.T) {
	srv := testServer(t, nil, testConfig())

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestHealthzDegradedStore(t *testing.T) {
	store := cache.NewMemoryStore()
	srv := testServer(t, store, testConfig())

	r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store":"ok"`)

	require.NoError(t, store.Close())

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t, nil, testConfig())

	body, err := json.Marshal(roomRequest("req-m"))
	require.NoError(t, err)
	postGenerate(t, srv.Handler(), body)

	r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "planloft_requests_total")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 1
	cfg.RateBurst = 1
	srv := testServer(t, nil, cfg)

	// Malformed bodies keep the test fast; the limiter runs first either way.
	w1, _ := postGenerate(t, srv.Handler(), []byte("{"))
	assert.Equal(t, http.StatusBadRequest, w1.Code)

	w2, resp := postGenerate(t, srv.Handler(), []byte("{"))
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
	assert.Contains(t, resp.Error, "rate limit")
}

func TestGenerateMethodNotAllowed(t *testing.T) {
	srv := testServer(t, nil, testConfig())

	r := httptest.NewRequest(http.MethodGet, "/generate", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestStartAndShutdown(t *testing.T) {
	srv := testServer(t, nil, testConfig())

	require.NoError(t, srv.Start())
	assert.Error(t, srv.Start(), "second start must fail")

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()), "shutdown is idempotent")

	assert.Error(t, srv.Start(), "start after shutdown must fail")

	_, err = http.Get("http://" + srv.Addr() + "/healthz")
	assert.Error(t, err, "server should no longer accept connections")
}

func TestResponseWireShape(t *testing.T) {
	srv := testServer(t, nil, testConfig())

	body, err := json.Marshal(roomRequest("req-w"))
	require.NoError(t, err)

	w, _ := postGenerate(t, srv.Handler(), body)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw, "correlationId")
	assert.Contains(t, raw, "success")
	require.Contains(t, raw, "data")

	data, ok := raw["data"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"position", "normal", "uv", "index", "boundsMin", "boundsMax"} {
		assert.Contains(t, data, key)
	}
	assert.NotContains(t, w.Body.String(), `"tangent"`, "tangents were not requested and must stay omitted")
}
