package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/MeasureLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MeasureLink/internal/infrastructure/monitoring/prometheus"
	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

// Extractor is the application service surface the API needs.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]*mtypes.Extraction, error)
}

// HealthChecker reports one dependency's connectivity for the readiness
// probe.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// RouterConfig aggregates the route tree's dependencies.  Metrics and
// Checkers are optional.
type RouterConfig struct {
	Extractor Extractor
	Metrics   *prometheus.Metrics
	Logger    logging.Logger
	Checkers  []HealthChecker
	Version   string
}

// NewRouter wires middleware, probes, and the extraction endpoint into one
// handler.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogging(logger, cfg.Metrics))

	r.Get("/healthz", livenessHandler(cfg.Version))
	r.Get("/readyz", readinessHandler(cfg.Checkers))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	h := &extractHandler{extractor: cfg.Extractor, logger: logger.Named("handler")}
	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/extract", h.Extract)
	})

	return r
}

// requestLogging logs every request on completion and records HTTP metrics
// when a collector is configured.  Probe and metrics paths are skipped to
// keep the log quiet.
func requestLogging(logger logging.Logger, metrics *prometheus.Metrics) func(http.Handler) http.Handler {
	skip := map[string]bool{"/healthz": true, "/readyz": true, "/metrics": true}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			fields := []logging.Field{
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", ww.Status()),
				logging.Duration("elapsed", elapsed),
				logging.String("request_id", chimw.GetReqID(r.Context())),
			}
			switch {
			case ww.Status() >= 500:
				logger.Error("request failed", fields...)
			case ww.Status() >= 400:
				logger.Warn("request rejected", fields...)
			default:
				logger.Info("request served", fields...)
			}
			if metrics != nil {
				metrics.RecordHTTPRequest(r.Method, r.URL.Path,
					http.StatusText(ww.Status()), elapsed)
			}
		})
	}
}

type livenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func livenessHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, livenessResponse{Status: "alive", Version: version})
	}
}

type readinessResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func readinessHandler(checkers []HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(checkers) == 0 {
			writeJSON(w, http.StatusOK, readinessResponse{Status: "ready"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp := readinessResponse{Status: "ready", Components: make(map[string]string)}
		status := http.StatusOK
		for _, c := range checkers {
			if err := c.Check(ctx); err != nil {
				resp.Components[c.Name()] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Components[c.Name()] = "ok"
		}
		writeJSON(w, status, resp)
	}
}
