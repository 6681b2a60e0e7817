package httptransport

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"enroll/internal/checkout"
	"enroll/internal/pricing"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/httputil"
)

type FakeTransactionResponse struct {
	TransactionID string          `json:"transaction_id"`
	Description   string          `json:"description"`
	Amount        string          `json:"amount"`
	Status        checkout.Status `json:"status"`
	ReturnURL     string          `json:"return_url,omitempty"`
}

func (h *Handler) handleFakeCheckoutPage(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "transactionID")
	tx, ok := h.fake.Transaction(txID)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "transaction not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FakeTransactionResponse{
		TransactionID: txID,
		Description:   tx.Order.Description,
		Amount:        tx.Order.Amount.StringFixed(pricing.Places),
		Status:        tx.Status,
		ReturnURL:     tx.Order.ReturnURL,
	})
}

// handleFakeCheckoutComplete plays both the payer and the provider: it sets
// the chosen status and then delivers the notification the way a provider
// would, through the signed URL handed over at checkout.
func (h *Handler) handleFakeCheckoutComplete(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "transactionID")
	tx, ok := h.fake.Transaction(txID)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "transaction not found"))
		return
	}
	if err := r.ParseForm(); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid form"))
		return
	}
	status := checkout.Status(strings.ToUpper(r.PostForm.Get("status")))
	switch status {
	case checkout.StatusPaid, checkout.StatusCancelled, checkout.StatusRefunded, checkout.StatusOpen:
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "status must be one of open, paid, cancelled, refunded"))
		return
	}
	if !h.fake.SetStatus(txID, status) {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeInvalidState, "transaction %s is %s and can no longer change", txID, strings.ToLower(string(tx.Status))))
		return
	}

	notifyURL, err := url.Parse(tx.NotificationURL)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "invalid notification url"))
		return
	}
	kind, err := h.verifier.Verify(notifyURL.Query().Get("token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.reconciler(kind)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	outcome, err := rec.Reconcile(r.Context(), txID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if tx.Order.ReturnURL != "" {
		http.Redirect(w, r, tx.Order.ReturnURL, http.StatusSeeOther)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OutcomeResponse{Outcome: outcome})
}
