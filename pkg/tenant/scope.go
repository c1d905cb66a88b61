package tenant

import (
	"context"
	"fmt"
)

// ScopeGuard prepares tenant-scoped infrastructure when a scope is
// entered and restores it when the scope ends. The isolation switch is
// the canonical implementation: Enter activates the tenant's data
// partition, Exit reverts to the default one.
type ScopeGuard interface {
	Enter(ctx context.Context, t *Tenant) error
	Exit(ctx context.Context)
}

// GuardFunc adapts a pair of functions to the ScopeGuard interface.
type GuardFunc struct {
	OnEnter func(ctx context.Context, t *Tenant) error
	OnExit  func(ctx context.Context)
}

func (g GuardFunc) Enter(ctx context.Context, t *Tenant) error {
	if g.OnEnter == nil {
		return nil
	}
	return g.OnEnter(ctx, t)
}

func (g GuardFunc) Exit(ctx context.Context) {
	if g.OnExit != nil {
		g.OnExit(ctx)
	}
}

// RunInScope executes fn with the tenant installed in the context and
// every guard entered. Guards are exited in reverse order on all exit
// paths, including panics, so partition activations and other
// per-request state never leak to the next request served by the same
// worker. Context values die with the derived context.
func RunInScope(ctx context.Context, t *Tenant, fn func(ctx context.Context) error, guards ...ScopeGuard) (err error) {
	ctx = WithTenant(ctx, t)

	entered := make([]ScopeGuard, 0, len(guards))
	defer func() {
		for i := len(entered) - 1; i >= 0; i-- {
			entered[i].Exit(ctx)
		}
	}()

	for _, g := range guards {
		if err := g.Enter(ctx, t); err != nil {
			return fmt.Errorf("tenant scope: enter guard: %w", err)
		}
		entered = append(entered, g)
	}

	return fn(ctx)
}
