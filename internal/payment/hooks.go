package payment

import "context"

// Hooks are the kind-specific side effects of a transition. They run after
// the transition is persisted and only on the edge that caused it, so a
// duplicate notification never fires them twice.
type Hooks[P Record] interface {
	OnPaid(ctx context.Context, p P) error
	OnCancelled(ctx context.Context, p P) error
	OnRefunded(ctx context.Context, p P) error
}

// NopHooks does nothing. Kinds embed it and override what they need.
type NopHooks[P Record] struct{}

func (NopHooks[P]) OnPaid(context.Context, P) error      { return nil }
func (NopHooks[P]) OnCancelled(context.Context, P) error { return nil }
func (NopHooks[P]) OnRefunded(context.Context, P) error  { return nil }
