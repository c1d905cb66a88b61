package tenant

import (
	"context"
	"errors"
)

// MaxHierarchyDepth bounds the parent walk. Deeper chains are treated
// as misconfiguration rather than followed indefinitely.
const MaxHierarchyDepth = 32

// Ancestors returns the tenant's ancestor chain in ascending order,
// starting with the tenant itself and ending at the root. The walk is
// bounded and detects cycles, returning ErrHierarchyCycle or
// ErrHierarchyTooDeep for malformed trees.
func Ancestors(ctx context.Context, store Store, t *Tenant) ([]*Tenant, error) {
	if t == nil {
		return nil, ErrTenantNotFound
	}

	chain := []*Tenant{t}
	seen := map[string]struct{}{t.ID.String(): {}}

	cur := t
	for cur.ParentID != nil {
		if len(chain) >= MaxHierarchyDepth {
			return nil, ErrHierarchyTooDeep
		}
		if _, dup := seen[cur.ParentID.String()]; dup {
			return nil, ErrHierarchyCycle
		}

		parent, err := store.GetByID(ctx, *cur.ParentID)
		if err != nil {
			// A dangling parent reference ends the chain: the tenant tree
			// may be mid-offboarding and the orphaned subtree still works.
			if errors.Is(err, ErrTenantNotFound) {
				return chain, nil
			}
			return nil, err
		}

		chain = append(chain, parent)
		seen[parent.ID.String()] = struct{}{}
		cur = parent
	}

	return chain, nil
}
