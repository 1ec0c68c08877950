package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailgate/internal/metrics"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"":                              "/",
		"/":                             "/",
		"/v1/notifications":             "/v1/notifications",
		"/v1/orders/12345":              "/v1/orders/:param",
		"/v1/x/3fa85f64-5717-4562-b3fc": "/v1/x/:param",
		"/readyz?verbose=1":             "/readyz",
	}
	for in, want := range cases {
		require.Equal(t, want, normalizePath(in), in)
	}
}

func TestRegisterMetrics_ExposesDomainAndHTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := RegisterMetrics(MetricsConfig{Registry: reg, Gatherer: reg})
	require.NoError(t, err)

	app := WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	metrics.ObserveNotification("order_confirmation", "delivered", time.Millisecond)
	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/notifications", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	require.True(t, strings.Contains(body, `http_requests_total{method="POST",path="/v1/notifications",status="202"}`), body)
	require.Contains(t, body, "mailgate_notification_duration_seconds")
}
