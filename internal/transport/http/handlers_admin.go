package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"enroll/internal/payment"
	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/httputil"
	"enroll/pkg/requestcontext"
)

type PollResponse struct {
	Reports map[payment.Kind]payment.PendingReport `json:"reports"`
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.adminTransition(w, r, "cancel", Reconciler.Cancel)
}

func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	h.adminTransition(w, r, "refund", Reconciler.Refund)
}

func (h *Handler) adminTransition(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	do func(Reconciler, context.Context, id.PaymentID) (payment.Outcome, error),
) {
	ctx := r.Context()
	rec, err := h.reconciler(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	paymentID, err := id.ParsePaymentID(chi.URLParam(r, "paymentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := do(rec, ctx, paymentID)
	if err != nil {
		// An operator asking for the wrong transition is a state problem, not
		// a provider divergence.
		if dErrors.HasCode(err, dErrors.CodeConsistencyViolation) {
			err = dErrors.New(dErrors.CodeInvalidState, dErrors.MessageOf(err))
		}
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "admin payment "+action,
		"request_id", requestcontext.RequestID(ctx),
		"kind", rec.Kind(),
		"id", paymentID.String(),
		"outcome", outcome,
	)
	httputil.WriteJSON(w, http.StatusOK, OutcomeResponse{Outcome: outcome})
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	rec, err := h.reconciler(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	outcome, err := rec.Reconcile(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OutcomeResponse{Outcome: outcome})
}

func (h *Handler) handlePoll(w http.ResponseWriter, r *http.Request) {
	if h.poller == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "pending poller is not configured"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PollResponse{Reports: h.poller.RunOnce(r.Context())})
}
