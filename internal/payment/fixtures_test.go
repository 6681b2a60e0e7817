package payment

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	id "enroll/pkg/domain"
)

type testPayment struct {
	Base
	Label string `json:"label"`
}

func (*testPayment) Kind() Kind { return "test" }

func (p *testPayment) Description() string { return "test " + p.Label }

func (p *testPayment) Clone() *testPayment {
	c := *p
	return &c
}

func newTestPayment(payableID id.PayableID, price string) *testPayment {
	user := id.UserID(uuid.New())
	return &testPayment{
		Base: Base{
			ID:        id.NewPaymentID(),
			PayableID: payableID,
			UserID:    &user,
			Price:     decimal.RequireFromString(price),
		},
		Label: "fixture",
	}
}

type recordingHooks struct {
	paid, cancelled, refunded atomic.Int32
	mu                        sync.Mutex
	seen                      []id.PaymentID
	err                       error
}

func (h *recordingHooks) record(p *testPayment) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, p.ID)
	return h.err
}

func (h *recordingHooks) OnPaid(_ context.Context, p *testPayment) error {
	h.paid.Add(1)
	return h.record(p)
}

func (h *recordingHooks) OnCancelled(_ context.Context, p *testPayment) error {
	h.cancelled.Add(1)
	return h.record(p)
}

func (h *recordingHooks) OnRefunded(_ context.Context, p *testPayment) error {
	h.refunded.Add(1)
	return h.record(p)
}
