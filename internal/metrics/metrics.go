package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backend API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrack_api_requests_total",
			Help: "Backend API calls by action and result",
		},
		[]string{"action", "result"}, // ok, rejected, error
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldtrack_api_request_duration_seconds",
			Help:    "Duration of backend API calls",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"action"},
	)

	BeaconsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrack_beacons_total",
			Help: "Fire-and-forget reports dispatched, by delivery outcome",
		},
		[]string{"result"}, // sent, error
	)

	// Session metrics
	AttendanceAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrack_attendance_attempts_total",
			Help: "Attendance report attempts by result",
		},
		[]string{"result"}, // logged, rejected, error, deferred, skipped_reload
	)

	LogoutReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrack_logout_reports_total",
			Help: "Session terminations by logout type",
		},
		[]string{"type"},
	)

	NetworkOutages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldtrack_network_outages_total",
			Help: "Connectivity outage windows opened",
		},
	)

	OutageDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fieldtrack_network_outage_duration_seconds",
			Help:    "Length of outage windows closed by reconnection or auto-disconnect",
			Buckets: []float64{1, 5, 15, 30, 60, 90, 120, 180, 300, 600},
		},
	)

	// GPS metrics
	GPSFixesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fieldtrack_gps_fixes_total",
			Help: "Position fixes received",
		},
	)

	GPSErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrack_gps_errors_total",
			Help: "Position errors by classification",
		},
		[]string{"code"},
	)

	// Status server metrics
	StatusClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fieldtrack_status_clients",
			Help: "Connected websocket status clients",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldtrack_http_requests_total",
			Help: "Status server requests",
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveAPI records one backend call.
func ObserveAPI(action, result string, start time.Time) {
	APIRequestsTotal.WithLabelValues(action, result).Inc()
	APIRequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Hijack lets websocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Middleware counts requests by chi route pattern, so path parameters do
// not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
	})
}
