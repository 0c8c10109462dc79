package observability

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "userapi"

// Logical user repository operations, used as the "op" label.
const (
	OpListUsers  = "list_users"
	OpFindUser   = "find_user"
	OpEmailTaken = "email_taken"
	OpCreateUser = "create_user"
	OpUpdateUser = "update_user"
	OpDeleteUser = "delete_user"
)

// RepositoryOps lists every op label the user repository reports.
var RepositoryOps = []string{OpListUsers, OpFindUser, OpEmailTaken, OpCreateUser, OpUpdateUser, OpDeleteUser}

// Prom holds the service's collectors: API traffic per route and the
// latency and failures of each user repository operation.
type Prom struct {
	APIRequests  *prometheus.CounterVec
	APILatency   *prometheus.HistogramVec
	APIInFlight  *prometheus.GaugeVec
	RepoLatency  *prometheus.HistogramVec
	RepoFailures *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		APIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "User API requests by route and response code.",
			},
			[]string{"method", "route", "code"},
		),
		// writes hash a password with bcrypt, so the upper buckets matter
		APILatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "User API request latency by route and response code.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.4, 0.8, 1.6, 3.2},
			},
			[]string{"method", "route", "code"},
		),
		APIInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "User API requests currently being served.",
			},
			[]string{"method", "route"},
		),
		RepoLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "repository",
				Name:      "op_duration_seconds",
				Help:      "User repository operation latency by op and outcome (ok, not_found, error).",
				Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"op", "outcome"},
		),
		RepoFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "repository",
				Name:      "op_failures_total",
				Help:      "User repository operations that failed, by op and MySQL error class.",
			},
			[]string{"op", "class"},
		),
	}
	reg.MustRegister(p.APIRequests, p.APILatency, p.APIInFlight, p.RepoLatency, p.RepoFailures)

	// export every op from the first scrape, before it has run
	for _, op := range RepositoryOps {
		p.RepoLatency.WithLabelValues(op, outcomeOK)
	}

	return p
}

// EchoMiddleware records request count, latency and in-flight gauge per route.
func (p *Prom) EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			method := c.Request().Method
			p.APIInFlight.WithLabelValues(method, route).Inc()
			defer p.APIInFlight.WithLabelValues(method, route).Dec()

			// let the error handler write the response so the real code is observed
			if err := next(c); err != nil {
				c.Error(err)
			}

			code := strconv.Itoa(c.Response().Status)
			p.APIRequests.WithLabelValues(method, route, code).Inc()
			p.APILatency.WithLabelValues(method, route, code).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
