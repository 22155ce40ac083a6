package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freytube/freytube/internal/app/middleware"
	"github.com/freytube/freytube/internal/core/constants"
)

// Routes builds the router for the local API
func (a *Application) Routes(requestLogging bool) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if requestLogging {
		r.Use(middleware.RequestLogging(a.logger))
	}
	r.Use(chimw.Recoverer)

	r.Get(constants.DefaultHealthCheckEndpoint, a.healthHandler)
	r.Get(constants.InstancesEndpoint, a.instancesHandler)
	r.Method(http.MethodGet, constants.MetricsEndpoint, promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(a.rateLimiter.Middleware())

		r.Get("/trending", a.trendingHandler)
		r.Get("/streams/{id}", a.streamsHandler)
		r.Get("/search", a.searchHandler)
		r.Get("/suggestions", a.suggestionsHandler)
		r.Get("/channel/{id}", a.channelHandler)
		r.Get("/comments/{id}", a.commentsHandler)

		r.Get("/settings", a.getSettingsHandler)
		r.Put("/settings/instance", a.preferredInstanceHandler)

		r.Get("/history", a.listHistoryHandler)
		r.Post("/history", a.upsertHistoryHandler)
		r.Delete("/history/{id}", a.deleteHistoryHandler)

		r.Get("/subscriptions", a.listSubscriptionsHandler)
		r.Post("/subscriptions", a.upsertSubscriptionHandler)
		r.Delete("/subscriptions/{id}", a.deleteSubscriptionHandler)

		r.Get("/downloads", a.listDownloadsHandler)
		r.Post("/downloads", a.startDownloadHandler)
		r.Delete("/downloads/{id}", a.cancelDownloadHandler)
	})
	return r
}
