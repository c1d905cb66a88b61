package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps accounts and entries in process memory. For tests
// and single-node development setups.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[accountKey]*Account
	entries  map[uuid.UUID][]Entry
}

type accountKey struct {
	tenantID    uuid.UUID
	accountType AccountType
}

// NewMemoryStore creates an empty in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[accountKey]*Account),
		entries:  make(map[uuid.UUID][]Entry),
	}
}

func (s *MemoryStore) getOrCreateLocked(tenantID uuid.UUID, accountType AccountType, name string) *Account {
	key := accountKey{tenantID, accountType}
	acc, ok := s.accounts[key]
	if !ok {
		acc = &Account{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Name:      name,
			Type:      accountType,
			Balance:   decimal.Zero,
			UpdatedAt: time.Now().UTC(),
		}
		s.accounts[key] = acc
	}
	return acc
}

func (s *MemoryStore) Mutate(_ context.Context, tenantID uuid.UUID, accountType AccountType, name string, fn func(acc *Account) (*Entry, error)) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.getOrCreateLocked(tenantID, accountType, name)
	work := *acc

	entry, err := fn(&work)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		e := *entry
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		e.AccountID = acc.ID
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		s.entries[acc.ID] = append(s.entries[acc.ID], e)
	}

	work.UpdatedAt = time.Now().UTC()
	*acc = work
	cp := work
	return &cp, nil
}

func (s *MemoryStore) AppendBatch(_ context.Context, tenantID uuid.UUID, accountType AccountType, name string, entries []Entry) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.getOrCreateLocked(tenantID, accountType, name)
	for _, entry := range entries {
		e := entry
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		e.AccountID = acc.ID
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now().UTC()
		}
		s.entries[acc.ID] = append(s.entries[acc.ID], e)
		acc.Balance = acc.Balance.Add(e.Delta())
	}
	acc.UpdatedAt = time.Now().UTC()
	cp := *acc
	return &cp, nil
}

func (s *MemoryStore) GetAccount(_ context.Context, tenantID uuid.UUID, accountType AccountType) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[accountKey{tenantID, accountType}]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (s *MemoryStore) ListEntries(_ context.Context, accountID uuid.UUID, limit, offset int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.entries[accountID]
	sorted := make([]Entry, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	if offset >= len(sorted) {
		return []Entry{}, nil
	}
	sorted = sorted[offset:]
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}
