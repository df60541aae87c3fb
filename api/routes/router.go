package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/packfinderz-forecast/api/controllers"
	forecastcontrollers "github.com/angelmondragon/packfinderz-forecast/api/controllers/forecast"
	"github.com/angelmondragon/packfinderz-forecast/api/middleware"
	"github.com/angelmondragon/packfinderz-forecast/internal/forecast"
	"github.com/angelmondragon/packfinderz-forecast/pkg/config"
	"github.com/angelmondragon/packfinderz-forecast/pkg/logger"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything the router wires into handlers. Gatherer defaults
// to the global Prometheus registry.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Health      map[string]controllers.Pinger
	RateLimiter rateLimiter
	Forecasts   forecast.Service
	Scenarios   forecastcontrollers.ScenarioComparer
	Gatherer    prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Health))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	forecastPolicy := middleware.NewRateLimitPolicy(
		"forecast",
		cfg.RateLimit.ForecastWindow,
		cfg.RateLimit.ForecastLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/forecast", func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(middleware.RateLimit(forecastPolicy, deps.RateLimiter, logg))
			}
			r.Post("/", forecastcontrollers.Forecast(deps.Forecasts, logg))
			r.Post("/chart", forecastcontrollers.Chart(deps.Forecasts, logg))
			r.Post("/scenarios", forecastcontrollers.Scenarios(deps.Scenarios, logg))
		})
	})

	return r
}
