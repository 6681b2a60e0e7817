package user

import (
	"context"
	"sync"

	id "enroll/pkg/domain"
	"enroll/pkg/platform/sentinel"
)

type InMemory struct {
	mu    sync.RWMutex
	users map[id.UserID]User
	roles map[Role]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{
		users: make(map[id.UserID]User),
		roles: make(map[Role]struct{}),
	}
}

// Save upserts u. SiblingIDs are ignored; use AddSibling.
func (s *InMemory) Save(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[u.ID]; ok {
		u.SiblingIDs = existing.SiblingIDs
	} else {
		u.SiblingIDs = nil
	}
	s.users[u.ID] = u
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return User{}, sentinel.ErrNotFound
	}
	u.SiblingIDs = append([]id.UserID(nil), u.SiblingIDs...)
	return u, nil
}

func (s *InMemory) SiblingsOf(_ context.Context, userID id.UserID) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]User, 0, len(u.SiblingIDs))
	for _, sid := range u.SiblingIDs {
		if sib, ok := s.users[sid]; ok {
			sib.SiblingIDs = nil
			out = append(out, sib)
		}
	}
	return out, nil
}

// AddSibling links a and b in both directions.
func (s *InMemory) AddSibling(_ context.Context, a, b id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ua, okA := s.users[a]
	ub, okB := s.users[b]
	if !okA || !okB {
		return sentinel.ErrNotFound
	}
	ua.SiblingIDs = appendUnique(ua.SiblingIDs, b)
	ub.SiblingIDs = appendUnique(ub.SiblingIDs, a)
	s.users[a] = ua
	s.users[b] = ub
	return nil
}

// SetRegistration moves a pending registration; others are left alone.
func (s *InMemory) SetRegistration(_ context.Context, userID id.UserID, status RegistrationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if u.Registration != RegistrationPending {
		return false, nil
	}
	u.Registration = status
	s.users[userID] = u
	return true, nil
}

func (s *InMemory) AssignRole(_ context.Context, r Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[r] = struct{}{}
	return nil
}

func (s *InMemory) RevokeRole(_ context.Context, r Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, r)
	return nil
}

func (s *InMemory) Roles(_ context.Context, userID id.UserID) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Role
	for r := range s.roles {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func appendUnique(ids []id.UserID, v id.UserID) []id.UserID {
	for _, existing := range ids {
		if existing == v {
			return ids
		}
	}
	return append(ids, v)
}
