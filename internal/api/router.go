package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/branch-appointment-booking/internal/branch"
	"github.com/hackgods/branch-appointment-booking/internal/commit"
	"github.com/hackgods/branch-appointment-booking/internal/observability/metrics"
	"github.com/hackgods/branch-appointment-booking/internal/session"
)

type RouterConfig struct {
	Sessions  *session.Store
	Cookies   *SessionCookies
	Directory branch.Directory
	Sink      commit.Sink
	Metrics   *metrics.WizardMetrics
	// MetricsHandler serves /metrics; promhttp.Handler() when nil.
	MetricsHandler http.Handler
	Logger         *zap.Logger
	PgPool         *pgxpool.Pool
	Redis          *redis.Client
	Env            string
	Version        string
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	directory := cfg.Directory
	if directory == nil {
		directory = branch.NewStaticDirectory(nil)
	}
	sink := cfg.Sink
	if sink == nil {
		sink = commit.NewLogSink(log)
	}
	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	deps := &bookingDeps{
		sessions:  cfg.Sessions,
		cookies:   cfg.Cookies,
		directory: directory,
		sink:      sink,
		metrics:   cfg.Metrics,
		log:       log,
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Get("/appointment-types", listAppointmentTypesHandler())
	r.Post("/sessions", createSessionHandler(deps))

	r.Route("/session", func(r chi.Router) {
		r.Use(SessionMiddleware(cfg.Sessions, cfg.Cookies))

		r.Get("/", getSessionHandler())
		r.Delete("/", deleteSessionHandler(deps))
		r.Put("/appointment", setAppointmentHandler())
		r.Get("/branches", listBranchesHandler(deps))
		r.Put("/branch", selectBranchHandler())
		r.Get("/dates", listDatesHandler())
		r.Get("/dates/{date}/slots", listSlotsHandler())
		r.Put("/slot", selectSlotHandler())
		r.Put("/contact", setContactHandler())
		r.Post("/next", nextHandler(deps))
		r.Post("/back", backHandler(deps))
		r.Post("/reset", resetHandler())
		r.Get("/confirmation", confirmationTextHandler())
	})

	return r
}
