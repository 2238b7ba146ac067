package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arunmurugan-dev/kadai-backend/api/controllers"
	ordercontrollers "github.com/arunmurugan-dev/kadai-backend/api/controllers/orders"
	webhookcontrollers "github.com/arunmurugan-dev/kadai-backend/api/controllers/webhooks"
	"github.com/arunmurugan-dev/kadai-backend/api/middleware"
	checkoutsvc "github.com/arunmurugan-dev/kadai-backend/internal/checkout"
	internalorders "github.com/arunmurugan-dev/kadai-backend/internal/orders"
	razorpaywebhook "github.com/arunmurugan-dev/kadai-backend/internal/webhooks/razorpay"
	"github.com/arunmurugan-dev/kadai-backend/pkg/config"
	"github.com/arunmurugan-dev/kadai-backend/pkg/db"
	"github.com/arunmurugan-dev/kadai-backend/pkg/logger"
	"github.com/arunmurugan-dev/kadai-backend/pkg/razorpay"
	"github.com/arunmurugan-dev/kadai-backend/pkg/redis"
)

// RouterParams carry everything the HTTP surface depends on.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              *db.Client
	Redis           *redis.Client
	Gateway         *razorpay.Client
	Checkout        checkoutsvc.Service
	Orders          internalorders.Service
	WebhookService  *razorpaywebhook.Service
	IdempotencyGate *razorpaywebhook.IdempotencyGuard
}

// NewRouter assembles the chi router with the shared middleware stack.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.DB, params.Redis, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", webhookcontrollers.RazorpayWebhook(params.WebhookService, params.Gateway, params.IdempotencyGate, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", controllers.Checkout(params.Checkout, logg))
		r.Post("/checkout/quote", controllers.CheckoutQuote(params.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/{orderId}", ordercontrollers.Detail(params.Orders, logg))
			r.Post("/{orderId}/ship", ordercontrollers.Ship(params.Orders, logg))
			r.Post("/{orderId}/deliver", ordercontrollers.Deliver(params.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(params.Orders, logg))
		})

		r.Route("/internal", func(r chi.Router) {
			r.Use(middleware.SharedSecret(cfg.Sweep.Token, logg))
			r.Post("/orders/expire", controllers.ExpireOrders(params.Orders, logg))
		})
	})

	return r
}
