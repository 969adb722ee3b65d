package metrics

import (
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dividendtoken_events_total",
			Help: "Total number of signed events handled by the conductor",
		},
		[]string{"kind", "status"},
	)

	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dividendtoken_operations_total",
			Help: "Total number of token operations",
		},
		[]string{"operation", "status"},
	)

	DistributionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dividendtoken_distributions_total",
			Help: "Total number of emissions distributed to holders",
		},
	)

	WithdrawalsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dividendtoken_withdrawals_total",
			Help: "Total number of dividend withdrawals",
		},
	)

	TotalSupply = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dividendtoken_total_supply",
			Help: "Total supply in base units (approximate above 2^53)",
		},
	)

	HalvingEra = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dividendtoken_halving_era",
			Help: "Current halving era, -1 before emission starts",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dividendtoken_http_requests_total",
			Help: "Total number of query API requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dividendtoken_http_request_duration_seconds",
			Help:    "Duration of query API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// unmatchedRoute labels requests no route matched.
const unmatchedRoute = "unmatched"

// Middleware records HTTP metrics for a chi router.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// route pattern keeps account IDs out of the labels
		path := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Status labels an outcome for the counters above.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// SetBig sets g to x, losing precision past float64.
func SetBig(g prometheus.Gauge, x *big.Int) {
	f, _ := new(big.Float).SetInt(x).Float64()
	g.Set(f)
}
