package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)

	router.Get("/health", h.health)
	router.Get("/api/version", h.getServerVersion)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Use(h.withRateLimit)

		r.Post("/api/user/register", h.register)
		r.Post("/api/user/login", h.login)
		r.Post("/api/user/refresh", h.refresh)
		r.Post("/api/user/logout", h.logout)
	})

	// routes behind JWT authorization
	router.Group(func(r chi.Router) {
		r.Use(h.withRateLimit)
		r.Use(h.auth)

		r.Route("/api/agents", func(r chi.Router) {
			r.Post("/", h.createAgent)
			r.Get("/", h.listAgents)

			r.Route("/{agentID}", func(r chi.Router) {
				r.Get("/", h.getAgent)
				r.Patch("/", h.updateAgent)
				r.Post("/status", h.transitionAgent)
				r.Post("/tasks", h.submitTask)
				r.Get("/tasks", h.listAgentTasks)
			})
		})

		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", h.listUserTasks)
			r.Get("/{taskID}", h.getTask)
		})

		r.Route("/api/marketplace/listings", func(r chi.Router) {
			r.Post("/", h.createListing)
			r.Get("/", h.searchListings)

			r.Route("/{listingID}", func(r chi.Router) {
				r.Get("/", h.getListing)
				r.Patch("/", h.updateListing)
				r.Delete("/", h.cancelListing)
				r.Post("/favorite", h.toggleFavorite)
				r.Post("/purchase", h.purchase)
			})
		})

		r.Route("/api/wallet", func(r chi.Router) {
			r.Get("/", h.getBalance)
			r.Post("/transfer", h.transfer)
			r.Post("/stake", h.stake)
			r.Post("/unstake", h.unstake)
			r.Get("/history", h.transactionHistory)
			if h.appCfg.Debug {
				r.Post("/faucet", h.faucet)
			}
		})

		r.Get("/api/transactions/{txID}", h.getTransaction)

		r.Route("/api/pricing", func(r chi.Router) {
			r.Get("/rates", h.getRates)
			r.Post("/estimate", h.estimateCost)
		})

		r.Get("/api/usage", h.usageSummary)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
