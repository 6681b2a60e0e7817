package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"enroll/internal/activity"
	"enroll/internal/event"
	"enroll/internal/membership"
	"enroll/internal/pricing"
	id "enroll/pkg/domain"
	"enroll/pkg/platform/httputil"
	"enroll/pkg/requestcontext"
)

// QuoteResponse is a price computed for display before checkout.
type QuoteResponse struct {
	Base   string       `json:"base"`
	Extras string       `json:"extras"`
	Rule   pricing.Rule `json:"rule"`
	Final  string       `json:"final"`
}

type MembershipQuoteResponse struct {
	QuoteResponse
	PeriodID   string `json:"period_id"`
	BranchID   string `json:"branch_id"`
	BranchName string `json:"branch_name"`
}

func toQuoteResponse(q pricing.Quote) QuoteResponse {
	return QuoteResponse{
		Base:   q.Base.StringFixed(pricing.Places),
		Extras: q.Extras.StringFixed(pricing.Places),
		Rule:   q.Rule,
		Final:  q.Final.StringFixed(pricing.Places),
	}
}

// callerID returns the forwarded member id, or "" for anonymous callers.
func callerID(r *http.Request) string {
	userID := requestcontext.UserID(r.Context())
	if userID.IsNil() {
		return ""
	}
	return userID.String()
}

func (h *Handler) handleMembershipQuote(w http.ResponseWriter, r *http.Request) {
	periodID, err := id.ParsePayableID(chi.URLParam(r, "periodID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	q, err := h.memberships.Quote(r.Context(), periodID, requestcontext.UserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MembershipQuoteResponse{
		QuoteResponse: toQuoteResponse(q.Quote),
		PeriodID:      periodID.String(),
		BranchID:      q.Branch.ID.String(),
		BranchName:    q.Branch.Name,
	})
}

func (h *Handler) handleMembershipRegister(w http.ResponseWriter, r *http.Request) {
	var req membership.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.UserID = callerID(r)
	out, err := h.memberships.Register(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) handleEventQuote(w http.ResponseWriter, r *http.Request) {
	var req event.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.UserID = callerID(r)
	q, err := h.events.Quote(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toQuoteResponse(q))
}

func (h *Handler) handleEventRegister(w http.ResponseWriter, r *http.Request) {
	var req event.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.UserID = callerID(r)
	out, err := h.events.Register(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) handleActivityQuote(w http.ResponseWriter, r *http.Request) {
	var req activity.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.UserID = callerID(r)
	q, err := h.activities.Quote(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toQuoteResponse(q))
}

func (h *Handler) handleActivityRegister(w http.ResponseWriter, r *http.Request) {
	var req activity.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.UserID = callerID(r)
	out, err := h.activities.Register(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, out)
}
