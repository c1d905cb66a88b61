package quota

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps quota rows in process memory. For tests and
// single-node development setups.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[memKey]*Quota
}

type memKey struct {
	tenantID uuid.UUID
	resource string
}

// NewMemoryStore creates an empty in-memory quota store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[memKey]*Quota)}
}

func (s *MemoryStore) Get(_ context.Context, tenantID uuid.UUID, resource string) (*Quota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.rows[memKey{tenantID, resource}]
	if !ok {
		return nil, ErrQuotaNotFound
	}
	cp := *q
	return &cp, nil
}

func (s *MemoryStore) Save(_ context.Context, q *Quota) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *q
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.ZeroPolicy == "" {
		cp.ZeroPolicy = ZeroUnlimited
	}
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.rows[memKey{cp.TenantID, cp.Resource}] = &cp
	return nil
}

func (s *MemoryStore) AdjustUsage(_ context.Context, tenantIDs []uuid.UUID, resource string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, id := range tenantIDs {
		if q, ok := s.rows[memKey{id, resource}]; ok {
			q.Usage += delta
			q.UpdatedAt = now
		}
	}
	return nil
}

func (s *MemoryStore) ConsumeChecked(_ context.Context, tenantIDs []uuid.UUID, resource string, amount int64) (*Quota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range tenantIDs {
		if q, ok := s.rows[memKey{id, resource}]; ok && !q.Admits(amount) {
			cp := *q
			return &cp, nil
		}
	}

	now := time.Now().UTC()
	for _, id := range tenantIDs {
		if q, ok := s.rows[memKey{id, resource}]; ok {
			q.Usage += amount
			q.UpdatedAt = now
		}
	}
	return nil, nil
}
