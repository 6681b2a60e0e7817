// Package store persists payables and their restrictions.
package store

import (
	"context"
	"sort"
	"sync"

	"enroll/internal/payable"
	id "enroll/pkg/domain"
	"enroll/pkg/platform/sentinel"
)

// InMemory is a catalog of one payable kind kept in a map.
type InMemory[P payable.Payable] struct {
	mu           sync.RWMutex
	items        map[id.PayableID]P
	restrictions map[id.PayableID][]payable.Restriction
}

func NewInMemory[P payable.Payable]() *InMemory[P] {
	return &InMemory[P]{
		items:        make(map[id.PayableID]P),
		restrictions: make(map[id.PayableID][]payable.Restriction),
	}
}

// Save replaces the payable and its full restriction list.
func (s *InMemory[P]) Save(_ context.Context, item P, restrictions []payable.Restriction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.PayableID()] = item
	s.restrictions[item.PayableID()] = sortedCopy(restrictions)
	return nil
}

func (s *InMemory[P]) FindByID(_ context.Context, payableID id.PayableID) (P, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[payableID]
	if !ok {
		var zero P
		return zero, sentinel.ErrNotFound
	}
	return item, nil
}

func (s *InMemory[P]) List(_ context.Context) ([]P, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]P, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out, nil
}

// Restrictions returns the payable's restrictions in declaration order.
func (s *InMemory[P]) Restrictions(_ context.Context, payableID id.PayableID) ([]payable.Restriction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]payable.Restriction(nil), s.restrictions[payableID]...), nil
}

func (s *InMemory[P]) FindRestriction(_ context.Context, payableID id.PayableID, restrictionID id.RestrictionID) (payable.Restriction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.restrictions[payableID] {
		if r.ID == restrictionID {
			return r, nil
		}
	}
	return payable.Restriction{}, sentinel.ErrNotFound
}

func sortedCopy(in []payable.Restriction) []payable.Restriction {
	out := append([]payable.Restriction(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
