package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums the samples of a counter family whose labels include want.
func counterValue(t *testing.T, family string, want map[string]string) float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range mfs {
		if mf.GetName() != family {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue next
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestMetrics_LabelsByRouteTemplate(t *testing.T) {
	r := gin.New()
	r.Use(Metrics("metrics-test"))
	r.GET("/guilds/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	labels := map[string]string{"endpoint": "/guilds/:id", "status": "200", "service": "metrics-test"}
	before := counterValue(t, "http_requests_total", labels)

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guilds/"+id, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, before+2, counterValue(t, "http_requests_total", labels))
	assert.Equal(t, 1.0, counterValue(t, "http_requests_total",
		map[string]string{"endpoint": "unmatched", "status": "404", "service": "metrics-test"}))
}

func TestRecordEvent(t *testing.T) {
	labels := map[string]string{"engine": "guild", "event": "metrics-test-join"}
	RecordEvent("guild", "metrics-test-join")
	RecordEvent("guild", "metrics-test-join")
	assert.Equal(t, 2.0, counterValue(t, "domain_events_total", labels))
}
