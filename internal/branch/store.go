package branch

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	id "enroll/pkg/domain"
	"enroll/pkg/platform/sentinel"
)

// InMemory holds the branch set. Branches change rarely and are seeded at
// startup.
type InMemory struct {
	mu       sync.RWMutex
	branches map[id.BranchID]Branch
}

func NewInMemory(branches ...Branch) *InMemory {
	s := &InMemory{branches: make(map[id.BranchID]Branch, len(branches))}
	for _, b := range branches {
		s.branches[b.ID] = b
	}
	return s
}

// List returns all branches in declaration order, archived ones included.
func (s *InMemory) List(_ context.Context) ([]Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Branch, 0, len(s.branches))
	for _, b := range s.branches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, branchID id.BranchID) (Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.branches[branchID]
	if !ok {
		return Branch{}, sentinel.ErrNotFound
	}
	return b, nil
}

func (s *InMemory) Save(_ context.Context, b Branch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[b.ID] = b
	return nil
}

type seedFile struct {
	Branches []Branch `yaml:"branches"`
}

// LoadSeed reads branches from a YAML file. Entries without an explicit
// order take their position in the file; two entries may not share an order.
func LoadSeed(path string) ([]Branch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read branch seed: %w", err)
	}
	return ParseSeed(raw)
}

func ParseSeed(raw []byte) ([]Branch, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse branch seed: %w", err)
	}
	seen := make(map[id.BranchID]struct{}, len(f.Branches))
	orders := make(map[int]string, len(f.Branches))
	for i := range f.Branches {
		b := &f.Branches[i]
		if b.ID.IsNil() {
			return nil, fmt.Errorf("branch %q: id is required", b.Name)
		}
		if _, dup := seen[b.ID]; dup {
			return nil, fmt.Errorf("branch %q: duplicate id %s", b.Name, b.ID)
		}
		seen[b.ID] = struct{}{}
		if b.Status == "" {
			b.Status = StatusActive
		}
		if b.Order == 0 {
			b.Order = i + 1
		}
		if other, dup := orders[b.Order]; dup {
			return nil, fmt.Errorf("branch %q: order %d already used by %q", b.Name, b.Order, other)
		}
		orders[b.Order] = b.Name
		if b.MaximumAge != nil && *b.MaximumAge < b.MinimumAge {
			return nil, fmt.Errorf("branch %q: maximum_age below minimum_age", b.Name)
		}
	}
	return f.Branches, nil
}
