// Farmdata - Environmental Sensor Data API
// Copyright 2026 Trent Farm Data
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/trentfarmdata/farmdata

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trentfarmdata/farmdata/internal/middleware"
)

// chartRoutes maps chart paths to their registry metrics.
var chartRoutes = map[string]string{
	"/air-temperature/":      "air_temp",
	"/humidity/":             "humidity",
	"/wind-speed/":           "wind_speed",
	"/snow-depth/":           "snow_depth",
	"/rainfall/":             "rainfall",
	"/solar-radiation/":      "solar_radiation",
	"/atmospheric-pressure/": "atmospheric_pressure",
}

// SetupChi builds the HTTP handler with all routes and middleware.
func (router *Router) SetupChi() http.Handler {
	mw := NewChiMiddleware(router.cfg.Security)

	r := chi.NewRouter()
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	authn := chiMiddleware(router.middleware.Authenticate)
	metricsMW := chiMiddleware(middleware.PrometheusMetrics)

	// data endpoints
	r.Route("/api", func(r chi.Router) {
		r.Use(mw.RateLimitAPI())
		r.Use(APISecurityHeaders())
		r.Use(metricsMW)
		r.Use(authn)

		r.Route("/charts", func(r chi.Router) {
			for path, metricName := range chartRoutes {
				r.Get(path, router.chartMetric(metricName))
			}
			r.Get("/soil-temperature/", router.chartSoilTemperature)
			r.Get("/multi-metric/", router.chartMultiMetric)

			r.Route("/statistical", func(r chi.Router) {
				r.Get("/boxplot/", router.statBoxplot)
				r.Get("/histogram/", router.statHistogram)
				r.Get("/correlation/", router.statCorrelation)
			})
		})

		r.Get("/raw/{metric}/", router.rawReadings)
		r.Get("/summary/monthly/", router.monthlySummary)
		r.Get("/latest/", router.latestReading)
		r.Get("/years/", router.listYears)
		r.Get("/metrics/", router.listMetrics)
	})

	// account endpoints
	r.Route("/auth", func(r chi.Router) {
		r.Use(mw.RateLimitAuth())
		r.Use(APISecurityHeaders())
		r.Use(metricsMW)

		r.Post("/register/", router.register)
		r.Post("/verify/", router.verify)
		r.Post("/resend/", router.resend)
		r.With(mw.RateLimitLogin()).Post("/token/", router.login)
		r.Post("/refresh/", router.refresh)
		r.With(authn).Get("/me/", router.me)
	})

	// admin endpoints
	r.Route("/admin", func(r chi.Router) {
		r.Use(mw.RateLimitAuth())
		r.Use(APISecurityHeaders())
		r.Use(metricsMW)
		r.Use(authn)
		r.Use(chiMiddleware(func(next http.HandlerFunc) http.HandlerFunc {
			return router.middleware.RequireRole("admin", next)
		}))

		r.Get("/customers/", router.adminCustomers)
		r.Post("/smtp-test/", router.adminSMTPTest)
	})

	// health and observability
	r.Route("/health", func(r chi.Router) {
		r.Use(mw.RateLimitHealth())
		r.Get("/live", router.healthLive)
		r.Get("/ready", router.healthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
