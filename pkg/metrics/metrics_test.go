package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := New(reg, "contactcleaner")
	require.NoError(t, err)
	return m, reg
}

func TestNew_NilRegisterer(t *testing.T) {
	_, err := New(nil, "x")
	require.Error(t, err)
}

func TestNew_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "contactcleaner")
	require.NoError(t, err)
	_, err = New(reg, "contactcleaner")
	require.NoError(t, err, "already registered collectors are tolerated")
}

func TestObserveCleanRun(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveCleanRun([]string{"trim_whitespace", "filter_columns"}, 3, 10*time.Millisecond)
	m.ObserveCleanRun([]string{"trim_whitespace"}, 0, time.Millisecond)
	m.ObserveCleanFailure()

	require.Equal(t, 2.0, testutil.ToFloat64(m.cleanRuns.WithLabelValues(ResultSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.cleanRuns.WithLabelValues(ResultFailure)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.stagesApplied.WithLabelValues("trim_whitespace")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.rowsRemoved))
}

func TestObserveEventPublish(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveEventPublish(nil)
	m.ObserveEventPublish(errors.New("broker down"))
	m.ObserveEventPublish(errors.New("broker down"))

	require.Equal(t, 1.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues(ResultSuccess)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues(ResultFailure)))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	reg := NewRegistry()
	m, err := New(reg, "contactcleaner")
	require.NoError(t, err)
	require.NoError(t, RegisterGauge(reg, "contactcleaner", "active_uploads", "Live uploads", func() float64 { return 4 }))

	m.ObserveUpload(ResultSuccess)
	m.ObserveHTTPRequest(http.MethodPost, http.StatusOK, time.Millisecond)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `contactcleaner_uploads_total{result="success"} 1`)
	require.Contains(t, string(body), `contactcleaner_http_requests_total{method="POST",status="200"} 1`)
	require.Contains(t, string(body), "contactcleaner_active_uploads 4")
	require.Contains(t, string(body), "go_goroutines")
}
