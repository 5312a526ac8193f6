package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forlarge/marketplace/internal/application"
	"github.com/forlarge/marketplace/internal/ports"
)

type Handler struct {
	service  *application.Service
	verifier ports.TokenVerifier
	webhooks ports.WebhookVerifier
}

func NewHandler(service *application.Service, verifier ports.TokenVerifier, webhooks ports.WebhookVerifier) *Handler {
	return &Handler{service: service, verifier: verifier, webhooks: webhooks}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ready") })

	// Checkout surface consumed by the storefront client.
	r.Route("/api", func(r chi.Router) {
		r.Post("/payments/create", handler.createPayment)
		r.Post("/payments/record", handler.recordPayment)
		r.Post("/payment/success", handler.paymentSuccess)
		r.Post("/webhooks/circle", handler.settlementWebhook)
		r.Post("/download/consume", handler.consumeDownload)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/downloads/{token}", handler.downloadState)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", handler.listPublishedProducts)
			r.Get("/{product_id}", handler.getProduct)

			r.Group(func(r chi.Router) {
				r.Use(handler.authMiddleware)
				r.Post("/", handler.createProduct)
				r.Get("/mine", handler.listMyProducts)
				r.Patch("/{product_id}", handler.updateProduct)
				r.Post("/{product_id}/publish", handler.publishProduct)
			})
		})
	})
	return r
}
