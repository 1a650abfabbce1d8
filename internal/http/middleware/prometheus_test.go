package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMiddleware_CountsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/exports/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/exports/abc", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	count := testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/exports/:id", "200"))
	assert.Equal(t, float64(3), count)
}

func TestPrometheusMiddleware_ObservesDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/exports", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/exports", nil)
	_, err = app.Test(req)
	require.NoError(t, err)

	// One observation recorded under the routed path.
	n := testutil.CollectAndCount(m.requestDuration, "http_request_duration_seconds")
	assert.Equal(t, 1, n)
}

func TestPrometheusMiddleware_ErrorStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/fail", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/fail", "400")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/boom", "500")))
}

func TestPrometheusMiddleware_SkipsMetricsPath(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)

	assert.Equal(t, 0, testutil.CollectAndCount(m.requestCount, "http_requests_total"))
}

func TestPrometheusMiddleware_DoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
