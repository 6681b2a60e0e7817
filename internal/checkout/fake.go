package checkout

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dErrors "enroll/pkg/domain-errors"
)

// Fake is an in-memory provider for development and tests. Transactions stay
// OPEN until SetStatus moves them.
type Fake struct {
	mu           sync.Mutex
	baseURL      string
	transactions map[string]*FakeTransaction
	failNext     error
}

// FakeTransaction is what the fake remembers about an opened transaction.
type FakeTransaction struct {
	Payer           Payer
	Order           Order
	NotificationURL string
	Status          Status
	Refunded        decimal.Decimal
}

func NewFake(baseURL string) *Fake {
	return &Fake{
		baseURL:      strings.TrimRight(baseURL, "/"),
		transactions: make(map[string]*FakeTransaction),
	}
}

func (f *Fake) OpenTransaction(_ context.Context, payer Payer, order Order, notificationURL string) (Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return Transaction{}, err
	}
	txID := "tr_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	f.transactions[txID] = &FakeTransaction{
		Payer:           payer,
		Order:           order,
		NotificationURL: notificationURL,
		Status:          StatusOpen,
	}
	return Transaction{ID: txID, RedirectURL: f.baseURL + "/checkout/fake/" + txID}, nil
}

func (f *Fake) QueryStatus(_ context.Context, transactionID string) (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return "", err
	}
	tx, ok := f.transactions[transactionID]
	if !ok {
		return "", dErrors.Newf(dErrors.CodeGateway, "unknown transaction %s", transactionID)
	}
	return tx.Status, nil
}

func (f *Fake) Refund(_ context.Context, transactionID string, amount decimal.Decimal, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	tx, ok := f.transactions[transactionID]
	if !ok {
		return dErrors.Newf(dErrors.CodeGateway, "unknown transaction %s", transactionID)
	}
	if tx.Status != StatusPaid {
		return dErrors.Newf(dErrors.CodeGateway, "transaction %s is not paid", transactionID)
	}
	tx.Refunded = tx.Refunded.Add(amount)
	tx.Status = StatusRefunded
	return nil
}

func (f *Fake) Cancel(_ context.Context, transactionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	tx, ok := f.transactions[transactionID]
	if !ok {
		return dErrors.Newf(dErrors.CodeGateway, "unknown transaction %s", transactionID)
	}
	switch tx.Status {
	case StatusOpen:
		tx.Status = StatusCancelled
		return nil
	case StatusCancelled:
		return nil
	default:
		return dErrors.Newf(dErrors.CodeGateway, "transaction %s is %s and cannot be cancelled", transactionID, tx.Status)
	}
}

// SetStatus moves a transaction, as the payer completing checkout would. A
// cancelled transaction stays cancelled.
func (f *Fake) SetStatus(transactionID string, status Status) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.transactions[transactionID]
	if !ok || tx.Status == StatusCancelled {
		return false
	}
	tx.Status = status
	return true
}

// Transaction returns a copy of a remembered transaction.
func (f *Fake) Transaction(transactionID string) (FakeTransaction, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.transactions[transactionID]
	if !ok {
		return FakeTransaction{}, false
	}
	return *tx, true
}

// FailNext makes the next call return err.
func (f *Fake) FailNext(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = err
}

func (f *Fake) takeFailure() error {
	err := f.failNext
	f.failNext = nil
	return err
}
