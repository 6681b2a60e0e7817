package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"enroll/internal/checkout"
	"enroll/internal/platform/metrics"
	"enroll/pkg/platform/httputil"
	"enroll/pkg/platform/middleware/admin"
	"enroll/pkg/platform/middleware/auth"
	"enroll/pkg/platform/middleware/request"
	"enroll/pkg/platform/middleware/requesttime"
)

// Router wires every public endpoint.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(h.logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(h.logger))
	r.Use(requesttime.Middleware)
	if h.httpMetrics != nil {
		r.Use(h.httpMetrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())
	r.Post(checkout.NotificationPath, h.handleCheckoutNotification)

	if h.memberships != nil {
		r.Route("/memberships", func(r chi.Router) {
			r.Use(auth.RequireUser(h.logger))
			r.Get("/periods/{periodID}/quote", h.handleMembershipQuote)
			r.Post("/", h.handleMembershipRegister)
		})
	}
	if h.events != nil {
		r.Route("/events", func(r chi.Router) {
			r.Use(auth.OptionalUser(h.logger))
			r.Post("/quote", h.handleEventQuote)
			r.Post("/registrations", h.handleEventRegister)
		})
	}
	if h.activities != nil {
		r.Route("/activities", func(r chi.Router) {
			r.Use(auth.RequireUser(h.logger))
			r.Post("/quote", h.handleActivityQuote)
			r.Post("/registrations", h.handleActivityRegister)
		})
	}

	r.Route("/admin/payments", func(r chi.Router) {
		r.Use(admin.RequireAdminToken(h.adminToken, h.logger))
		r.Post("/poll", h.handlePoll)
		r.Post("/{kind}/transactions/{transactionID}/reconcile", h.handleReconcile)
		r.Post("/{kind}/{paymentID}/cancel", h.handleCancel)
		r.Post("/{kind}/{paymentID}/refund", h.handleRefund)
	})

	if h.fake != nil {
		r.Get("/checkout/fake/{transactionID}", h.handleFakeCheckoutPage)
		r.Post("/checkout/fake/{transactionID}", h.handleFakeCheckoutComplete)
	}
	return r
}
