package payment

import (
	"context"
	"sort"
	"sync"
	"time"

	id "enroll/pkg/domain"
	dErrors "enroll/pkg/domain-errors"
	"enroll/pkg/platform/sentinel"
)

// Cloner lets the in-memory store hand out copies instead of shared pointers.
type Cloner[P any] interface {
	Record
	Clone() P
}

const (
	numTxShards      = 64
	defaultTxTimeout = 5 * time.Second
)

// InMemory keeps payments of one kind in a map. RunInTx serializes callers
// sharing a lock key with sharded mutexes.
type InMemory[P Cloner[P]] struct {
	mu       sync.RWMutex
	payments map[id.PaymentID]P

	shards  [numTxShards]sync.Mutex
	timeout time.Duration
}

func NewInMemory[P Cloner[P]]() *InMemory[P] {
	return &InMemory[P]{payments: make(map[id.PaymentID]P)}
}

func (s *InMemory[P]) Create(_ context.Context, p P) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := p.PaymentBase()
	if _, exists := s.payments[b.ID]; exists {
		return sentinel.ErrConflict
	}
	for _, existing := range s.payments {
		eb := existing.PaymentBase()
		if b.UserID != nil && eb.UserID != nil && eb.PayableID == b.PayableID && *eb.UserID == *b.UserID {
			return sentinel.ErrConflict
		}
		if b.TransactionID != nil && eb.TransactionID != nil && *eb.TransactionID == *b.TransactionID {
			return sentinel.ErrConflict
		}
	}
	s.payments[b.ID] = p.Clone()
	return nil
}

func (s *InMemory[P]) FindByID(_ context.Context, paymentID id.PaymentID) (P, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[paymentID]
	if !ok {
		var zero P
		return zero, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemory[P]) FindByTransactionID(_ context.Context, transactionID string) (P, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.payments {
		if transactionOf(p.PaymentBase()) == transactionID {
			return p.Clone(), nil
		}
	}
	var zero P
	return zero, sentinel.ErrNotFound
}

func (s *InMemory[P]) AssignTransaction(_ context.Context, paymentID id.PaymentID, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if p.PaymentBase().TransactionID != nil {
		return sentinel.ErrStaleState
	}
	for _, other := range s.payments {
		if transactionOf(other.PaymentBase()) == transactionID {
			return sentinel.ErrConflict
		}
	}
	updated := p.Clone()
	updated.PaymentBase().TransactionID = &transactionID
	s.payments[paymentID] = updated
	return nil
}

func (s *InMemory[P]) MarkPaid(_ context.Context, paymentID id.PaymentID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok || p.PaymentBase().Paid {
		return false, nil
	}
	updated := p.Clone()
	updated.PaymentBase().Paid = true
	s.payments[paymentID] = updated
	return true, nil
}

func (s *InMemory[P]) DeleteIf(_ context.Context, paymentID id.PaymentID, paid bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok || p.PaymentBase().Paid != paid {
		return false, nil
	}
	delete(s.payments, paymentID)
	return true, nil
}

func (s *InMemory[P]) ListPending(_ context.Context, limit int) ([]P, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []P
	for _, p := range s.payments {
		b := p.PaymentBase()
		if !b.Paid && b.TransactionID != nil {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PaymentBase().CreatedAt.Before(out[j].PaymentBase().CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemory[P]) CountByPayable(_ context.Context, payableID id.PayableID) (int, error) {
	return s.count(func(b *Base) bool { return b.PayableID == payableID }), nil
}

func (s *InMemory[P]) CountByRestriction(_ context.Context, payableID id.PayableID, restrictionID id.RestrictionID) (int, error) {
	return s.count(func(b *Base) bool {
		return b.PayableID == payableID && b.RestrictionID != nil && *b.RestrictionID == restrictionID
	}), nil
}

func (s *InMemory[P]) CountByBranch(_ context.Context, payableID id.PayableID, branchID id.BranchID) (int, error) {
	return s.count(func(b *Base) bool {
		return b.PayableID == payableID && b.BranchID != nil && *b.BranchID == branchID
	}), nil
}

func (s *InMemory[P]) ExistsByPayableAndUser(_ context.Context, payableID id.PayableID, userID id.UserID) (bool, error) {
	return s.count(func(b *Base) bool {
		return b.PayableID == payableID && b.UserID != nil && *b.UserID == userID
	}) > 0, nil
}

func (s *InMemory[P]) count(match func(*Base) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.payments {
		if match(p.PaymentBase()) {
			n++
		}
	}
	return n
}

func (s *InMemory[P]) RunInTx(ctx context.Context, lockKey string, fn func(store Store[P]) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := s.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := &s.shards[hashKey(lockKey)%numTxShards]
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(s)
}

// hashKey is FNV-1a.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
