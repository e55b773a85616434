package handlers

import (
	"net/http"
	"time"

	"github.com/chris/teller-queue/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RequestTimeout bounds every request.
const RequestTimeout = 30 * time.Second

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	AllowedOrigins []string
}

// NewRouter mounts the handlers on a chi router. Credentials travel in the
// Authorization header, so CORS never allows cookies.
func NewRouter(h *ApiHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.NewStructuredLogger(h.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Post("/login", h.Login)
	r.Post("/admin-login", h.AdminLogin)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.Authenticate)

		r.Get("/me", h.Me)
		r.Post("/create-transaction", h.CreateTransaction)
		r.Post("/create-withdrawal", h.CreateWithdrawal)
		r.Put("/update-transaction/{id}", h.UpdateTransaction)
		r.Put("/delete-transaction/{id}", h.DeleteTransaction)
		r.Put("/update-transaction-status/{id}", h.UpdateTransactionStatus)
		r.Get("/queues/{queue}/transactions", h.ListQueue)
		r.Get("/display-transactions", h.DisplayTransactions)
		r.Post("/create-user", h.CreateUser)
		r.Put("/update-user/{id}", h.UpdateUser)
	})

	return r
}
