package httptransport

import (
	"net/http"

	"enroll/internal/payment"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/httputil"
	"enroll/pkg/requestcontext"
)

type OutcomeResponse struct {
	Outcome payment.Outcome `json:"outcome"`
}

// handleCheckoutNotification receives the provider's status-change call. The
// body only names the transaction; the status is always fetched from the
// provider. A divergence is answered with 200 since a retry cannot fix it.
func (h *Handler) handleCheckoutNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := h.verifier.Verify(r.URL.Query().Get("token"))
	if err != nil {
		h.logger.WarnContext(ctx, "rejected checkout notification",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.reconciler(kind)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid notification body"))
		return
	}
	transactionID := r.PostForm.Get("id")
	if transactionID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "id is required"))
		return
	}

	outcome, err := rec.Reconcile(ctx, transactionID)
	if err != nil && !dErrors.HasCode(err, dErrors.CodeConsistencyViolation) {
		h.logger.ErrorContext(ctx, "checkout notification failed",
			"request_id", requestcontext.RequestID(ctx),
			"kind", kind,
			"payment_id", transactionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OutcomeResponse{Outcome: outcome})
}
