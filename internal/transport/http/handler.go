// Package httptransport is the thin HTTP layer over the registration services
// and the payment lifecycle. Handlers decode, delegate and encode; they hold
// no business rules.
package httptransport

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"enroll/internal/payment"
	"enroll/internal/platform/metrics"
	dErrors "enroll/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	memberships MembershipService
	events      EventService
	activities  ActivityService
	reconcilers map[payment.Kind]Reconciler
	verifier    NotificationVerifier
	poller      Poller
	fake        FakeProvider
	adminToken  string
	httpMetrics *metrics.HTTP
	logger      *slog.Logger
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func WithMemberships(s MembershipService) Option {
	return func(h *Handler) {
		h.memberships = s
	}
}

func WithEvents(s EventService) Option {
	return func(h *Handler) {
		h.events = s
	}
}

func WithActivities(s ActivityService) Option {
	return func(h *Handler) {
		h.activities = s
	}
}

// WithAdmin enables the operator routes behind token.
func WithAdmin(token string, poller Poller) Option {
	return func(h *Handler) {
		h.adminToken = token
		h.poller = poller
	}
}

// WithFakeCheckout mounts the development checkout page.
func WithFakeCheckout(fake FakeProvider) Option {
	return func(h *Handler) {
		h.fake = fake
	}
}

func WithHTTPMetrics(m *metrics.HTTP) Option {
	return func(h *Handler) {
		h.httpMetrics = m
	}
}

// New builds the handler. Every payment kind the webhook can name needs a
// reconciler.
func New(verifier NotificationVerifier, reconcilers []Reconciler, opts ...Option) (*Handler, error) {
	if verifier == nil {
		return nil, errors.New("notification verifier is required")
	}
	h := &Handler{
		verifier:    verifier,
		reconcilers: make(map[payment.Kind]Reconciler, len(reconcilers)),
		logger:      slog.Default(),
	}
	for _, r := range reconcilers {
		if r == nil {
			return nil, errors.New("reconciler must not be nil")
		}
		if _, dup := h.reconcilers[r.Kind()]; dup {
			return nil, errors.New("duplicate reconciler for kind " + string(r.Kind()))
		}
		h.reconcilers[r.Kind()] = r
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *Handler) reconciler(kind string) (Reconciler, error) {
	r, ok := h.reconcilers[payment.Kind(kind)]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown payment kind %q", kind)
	}
	return r, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
