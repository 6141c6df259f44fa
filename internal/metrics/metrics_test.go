package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/committees", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", Handler())

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/committees", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/committees", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/committees", "200"))
	assert.Equal(t, before+1, after)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "unmatched", "404")), 1.0)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "decom_http_requests_total")
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(statusChanges.WithLabelValues("En diseño"))
	StatusChanged("En diseño")
	assert.Equal(t, before+1, testutil.ToFloat64(statusChanges.WithLabelValues("En diseño")))

	b := testutil.ToFloat64(requestsArchived)
	RequestArchived()
	assert.Equal(t, b+1, testutil.ToFloat64(requestsArchived))
}
