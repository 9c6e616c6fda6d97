package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountersAndHandler(t *testing.T) {
	m := NewMetrics("lp_test")
	m.IncPlanUnit("batch", "ok")
	m.IncPlanUnit("batch", "ok")
	m.IncPlanUnit("batch", "failed")
	m.ObserveLLMRequest("gpt", "200", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.planUnits.WithLabelValues("batch", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.planUnits.WithLabelValues("batch", "failed")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "lp_test_llm_requests_total"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.IncPlanRequest("batch", "ok")
	m.ObserveHTTP("GET", "/", "200", time.Millisecond)
	m.IncRender("pdf", "ok")
	assert.Nil(t, m.Registry())
}
