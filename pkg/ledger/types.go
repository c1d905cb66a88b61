package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType names a bucket of value a tenant holds. The built-in
// types cover billing credits and metered infrastructure; deployments
// may introduce their own.
type AccountType string

const (
	AccountCredits  AccountType = "CREDIT"
	AccountStorage  AccountType = "STORAGE"
	AccountAPICalls AccountType = "API_CALLS"
)

// EntryType is the direction of a ledger entry.
type EntryType string

const (
	// EntryCredit adds value to the account.
	EntryCredit EntryType = "CREDIT"
	// EntryDebit subtracts value from the account.
	EntryDebit EntryType = "DEBIT"
)

// Account is one bucket of value for a tenant. The balance always
// equals the sum of the account's entries; it is never mutated except
// in the same atomic unit as an entry write.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Entry is an immutable record of one value change. Entries are never
// updated or deleted; corrections are new entries in the opposite
// direction.
type Entry struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   uuid.UUID       `json:"account_id"`
	Type        EntryType       `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Delta is the signed effect of the entry on the account balance.
func (e *Entry) Delta() decimal.Decimal {
	if e.Type == EntryDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
