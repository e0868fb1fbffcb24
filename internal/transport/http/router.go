package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seatserve/internal/handler"
	"seatserve/internal/httputil"
)

// RouterConfig holds the handlers the routes are built from.
type RouterConfig struct {
	MemberHandler     *handler.MemberHandler
	BillingHandler    *handler.BillingHandler
	AttendanceHandler *handler.AttendanceHandler
	AlertHandler      *handler.AlertHandler
}

// NewRouter creates and configures the Chi router with all route groups.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/members", func(r chi.Router) {
		r.Post("/", cfg.MemberHandler.Register)
		r.Get("/", cfg.MemberHandler.List)
		r.Get("/available-seats", cfg.MemberHandler.AvailableSeats)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", cfg.MemberHandler.Get)
			r.Patch("/", cfg.MemberHandler.Edit)
			r.Post("/leave", cfg.MemberHandler.MarkAsLeft)
			r.Post("/reactivate", cfg.MemberHandler.Reactivate)

			r.Post("/payments", cfg.BillingHandler.RecordPayment)

			r.Get("/attendance", cfg.AttendanceHandler.MemberSummary)
			r.Get("/attendance/open", cfg.AttendanceHandler.OpenSession)

			r.Get("/alerts", cfg.AlertHandler.ListForMember)
			r.Post("/alerts/{alertId}/read", cfg.AlertHandler.MarkRead)
			r.Post("/tokens", cfg.AlertHandler.RegisterToken)
			r.Delete("/tokens", cfg.AlertHandler.RemoveToken)
		})
	})

	r.Route("/attendance", func(r chi.Router) {
		r.Post("/checkin", cfg.AttendanceHandler.CheckIn)
		r.Post("/{sessionId}/checkout", cfg.AttendanceHandler.CheckOut)
	})

	r.Post("/alerts", cfg.AlertHandler.Dispatch)
	r.Get("/revenue", cfg.BillingHandler.MonthlyRevenue)

	return r
}
