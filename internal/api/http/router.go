// Package http serves the funding JSON API over chi.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter builds the API route tree with the standard middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(recoverer)

	r.Get("/healthz", handler.handleHealthz)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/accounts/{addr}", func(r chi.Router) {
			r.Get("/", handler.handleGetAccount)
			r.Post("/deposit", handler.handleDeposit)
		})

		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/", handler.handleCreateCampaign)
			r.Get("/", handler.handleListCampaigns)

			r.Route("/{addr}", func(r chi.Router) {
				r.Get("/", handler.handleGetCampaign)
				r.Post("/contributions", handler.handleContribute)
				r.Put("/approval-threshold", handler.handleSetApprovalThreshold)
				r.Get("/events", handler.handleListEvents)
				r.Get("/verify", handler.handleVerify)

				r.Route("/requests", func(r chi.Router) {
					r.Post("/", handler.handleCreateRequest)
					r.Get("/", handler.handleListRequests)
					r.Get("/{index}", handler.handleGetRequest)
					r.Post("/{index}/approvals", handler.handleApproveRequest)
					r.Post("/{index}/finalization", handler.handleFinalizeRequest)
				})
			})
		})
	})

	return r
}
