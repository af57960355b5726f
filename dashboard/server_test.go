package dashboard

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) (*Server, *Metrics) {
	t.Helper()
	metrics := NewMetrics()
	b := &Builder{Config: testConfig(writeDataDir(t)), Logger: zaptest.NewLogger(t), Metrics: metrics}
	s := NewServer(b, metrics, zaptest.NewLogger(t))
	require.NoError(t, s.Rebuild(context.Background()))
	return s, metrics
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServerNotReady(t *testing.T) {
	s := NewServer(&Builder{}, nil, nil)
	rec := get(t, s.Handler(), "/api/dashboard")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Error)
}

func TestServerJSONEndpoints(t *testing.T) {
	s, metrics := newTestServer(t)
	h := s.Handler()

	rec := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), s.Snapshot().BuildID)

	rec = get(t, h, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var dash struct {
		BuildID string `json:"buildId"`
		Funding struct {
			Graph struct {
				Nodes []string `json:"nodes"`
			} `json:"graph"`
		} `json:"funding"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, s.Snapshot().BuildID, dash.BuildID)
	assert.Contains(t, dash.Funding.Graph.Nodes, "Others")

	rec = get(t, h, "/api/funding/flows")
	require.Equal(t, http.StatusOK, rec.Code)
	var graph struct {
		Nodes []string `json:"nodes"`
		Links []struct {
			Source int     `json:"source"`
			Target int     `json:"target"`
			Value  float64 `json:"value"`
		} `json:"links"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &graph))
	require.NotEmpty(t, graph.Links)
	assert.Equal(t, 12_000_000.0, graph.Links[0].Value)

	rec = get(t, h, "/api/countries")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"country":"United States"`)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET /healthz", "200")))
}

func TestServerFlowsCSV(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/api/funding/flows?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "From,To,Amount,Source\n"))

	rec = get(t, s.Handler(), "/api/funding/flows?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerCharts(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	rec := get(t, h, "/charts/demographics-gender.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	rec = get(t, h, "/charts/countries-responses.svg")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<svg")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/charts/nope.png").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/charts/demographics-gender.gif").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, httpDo(h, http.MethodPost, "/api/dashboard").Code)
}

func httpDo(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestServerMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "eadash_builds_total")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewServer(&Builder{}, nil, zaptest.NewLogger(t))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	cancel()
	require.NoError(t, <-done)
	http.DefaultClient.CloseIdleConnections()
}
