package ledger_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/ledger"
	"github.com/dmitrymomot/tenantkit/pkg/tenant"
)

func newTenant(slug string) *tenant.Tenant {
	return &tenant.Tenant{ID: uuid.New(), Slug: slug, Name: slug, Active: true}
}

func credit(amount string) ledger.Transaction {
	return ledger.Transaction{
		AccountType: ledger.AccountCredits,
		Type:        ledger.EntryCredit,
		Amount:      decimal.RequireFromString(amount),
	}
}

func debit(amount string) ledger.Transaction {
	return ledger.Transaction{
		AccountType: ledger.AccountCredits,
		Type:        ledger.EntryDebit,
		Amount:      decimal.RequireFromString(amount),
	}
}

func TestEngine_ProcessTransaction(t *testing.T) {
	t.Parallel()

	t.Run("credit then exact debit drains the account", func(t *testing.T) {
		t.Parallel()

		e := ledger.NewEngine(ledger.NewMemoryStore())
		org := newTenant("acme")
		ctx := context.Background()

		entry, balance, err := e.ProcessTransaction(ctx, org, credit("500.00"))
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, ledger.EntryCredit, entry.Type)
		assert.True(t, balance.Equal(decimal.RequireFromString("500.00")))

		_, balance, err = e.ProcessTransaction(ctx, org, debit("500.00"))
		require.NoError(t, err)
		assert.True(t, balance.IsZero())

		_, _, err = e.ProcessTransaction(ctx, org, debit("0.01"))
		require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

		var insufficient *ledger.InsufficientFundsError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, ledger.AccountCredits, insufficient.AccountType)
		assert.True(t, insufficient.Available.IsZero())
	})

	t.Run("rejected debit writes nothing", func(t *testing.T) {
		t.Parallel()

		e := ledger.NewEngine(ledger.NewMemoryStore())
		org := newTenant("acme")
		ctx := context.Background()

		_, _, err := e.ProcessTransaction(ctx, org, credit("10.00"))
		require.NoError(t, err)

		_, _, err = e.ProcessTransaction(ctx, org, debit("10.01"))
		require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

		balance, err := e.GetBalance(ctx, org, ledger.AccountCredits)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.RequireFromString("10.00")))

		entries, err := e.ListEntries(ctx, org, ledger.AccountCredits, 0, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "only the credit must be recorded")
	})

	t.Run("account types are independent", func(t *testing.T) {
		t.Parallel()

		e := ledger.NewEngine(ledger.NewMemoryStore())
		org := newTenant("acme")
		ctx := context.Background()

		_, _, err := e.ProcessTransaction(ctx, org, credit("100.00"))
		require.NoError(t, err)

		_, _, err = e.ProcessTransaction(ctx, org, ledger.Transaction{
			AccountType: ledger.AccountStorage,
			Type:        ledger.EntryDebit,
			Amount:      decimal.NewFromInt(1),
		})
		require.ErrorIs(t, err, ledger.ErrInsufficientFunds,
			"credits balance must not cover storage debits")
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()

		e := ledger.NewEngine(ledger.NewMemoryStore())
		org := newTenant("acme")
		ctx := context.Background()

		_, _, err := e.ProcessTransaction(ctx, org, ledger.Transaction{
			AccountType: ledger.AccountCredits,
			Type:        "TRANSFER",
			Amount:      decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, ledger.ErrInvalidEntryType)

		_, _, err = e.ProcessTransaction(ctx, org, credit("0"))
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

		_, _, err = e.ProcessTransaction(ctx, org, debit("-5"))
		assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	})
}

func TestEngine_GetBalance(t *testing.T) {
	t.Parallel()

	e := ledger.NewEngine(ledger.NewMemoryStore())
	org := newTenant("acme")
	ctx := context.Background()

	balance, err := e.GetBalance(ctx, org, ledger.AccountCredits)
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "untouched accounts read as zero")

	_, _, err = e.ProcessTransaction(ctx, org, credit("42.5000"))
	require.NoError(t, err)

	balance, err = e.GetBalance(ctx, org, ledger.AccountCredits)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("42.5")))
}

func TestEngine_ListEntries(t *testing.T) {
	t.Parallel()

	e := ledger.NewEngine(ledger.NewMemoryStore())
	org := newTenant("acme")
	ctx := context.Background()

	entries, err := e.ListEntries(ctx, org, ledger.AccountCredits, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	for _, txn := range []ledger.Transaction{credit("100"), debit("25"), credit("5")} {
		txn.Description = "topup"
		_, _, err := e.ProcessTransaction(ctx, org, txn)
		require.NoError(t, err)
	}

	entries, err = e.ListEntries(ctx, org, ledger.AccountCredits, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	limited, err := e.ListEntries(ctx, org, ledger.AccountCredits, 2, 0)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	offset, err := e.ListEntries(ctx, org, ledger.AccountCredits, 0, 2)
	require.NoError(t, err)
	assert.Len(t, offset, 1)
}

func TestAccountName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "acme Credit", ledger.AccountName("acme", ledger.AccountCredits))
	assert.Equal(t, "acme Api_calls", ledger.AccountName("acme", ledger.AccountAPICalls))
}
