package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/v1/tours/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", Handler())

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/tours/:id", "200"))
	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tours/"+id, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/tours/:id", "200"))
	assert.Equal(t, before+2, after)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tourflow_http_requests_total")
}

func TestObserveJob(t *testing.T) {
	ObserveJob("sweep", 4, nil)
	ObserveJob("sweep", 0, errors.New("boom"))
	assert.Equal(t, float64(1), testutil.ToFloat64(jobRuns.WithLabelValues("sweep", "false")))
	assert.Equal(t, float64(4), testutil.ToFloat64(jobAffected.WithLabelValues("sweep")))
}
