package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landledger/landledger/database"
	"github.com/landledger/landledger/internal/apierror"
	"github.com/landledger/landledger/model"
)

func seedAccount(t *testing.T, s *Store, id, name string, balance int64) {
	t.Helper()
	now := time.Now().UTC()
	_, err := s.CreateAccount(context.Background(), model.Account{
		AccountID: id, Name: name, Balance: decimal.NewFromInt(balance),
		Status: model.AccountActive, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
}

func TestCreateAccount_UniqueName(t *testing.T) {
	s := New()
	seedAccount(t, s, "acc_1", "Main", 0)

	_, err := s.CreateAccount(context.Background(), model.Account{AccountID: "acc_2", Name: "Main"})
	assert.True(t, apierror.Is(err, apierror.ErrInvalidOperation))

	_, err = s.GetAccountByID(context.Background(), "acc_2")
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}

func TestRunInTx_FailedUnitLeavesNoTrace(t *testing.T) {
	s := New()
	seedAccount(t, s, "acc_1", "Main", 100)

	boom := errors.New("boom")
	err := s.RunInTx(context.Background(), func(tx database.Tx) error {
		locked, err := tx.LockAccounts(context.Background(), "acc_1")
		require.NoError(t, err)
		acc := locked["acc_1"]
		acc.Balance = decimal.NewFromInt(40)
		require.NoError(t, tx.UpdateAccount(context.Background(), acc))
		require.NoError(t, tx.InsertLedgerEntry(context.Background(), &model.LedgerEntry{
			AccountID: "acc_1", Kind: model.EntryWithdraw, Amount: decimal.NewFromInt(-60),
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	acc, err := s.GetAccountByID(context.Background(), "acc_1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(acc.Balance))

	entries, err := s.GetLedgerEntries(context.Background(), model.LogFilter{AccountID: "acc_1"})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunInTx_LockedCopiesAreIsolated(t *testing.T) {
	s := New()
	seedAccount(t, s, "acc_1", "Main", 100)

	err := s.RunInTx(context.Background(), func(tx database.Tx) error {
		locked, err := tx.LockAccounts(context.Background(), "acc_1")
		require.NoError(t, err)
		locked["acc_1"].Balance = decimal.NewFromInt(1)
		return nil
	})
	require.NoError(t, err)

	acc, _ := s.GetAccountByID(context.Background(), "acc_1")
	assert.True(t, decimal.NewFromInt(100).Equal(acc.Balance), "only UpdateAccount changes stored state")
}

func TestRunInTx_ConcurrentUnitsSerialize(t *testing.T) {
	s := New()
	seedAccount(t, s, "acc_1", "Main", 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.RunInTx(context.Background(), func(tx database.Tx) error {
				locked, err := tx.LockAccounts(context.Background(), "acc_1")
				if err != nil {
					return err
				}
				acc := locked["acc_1"]
				acc.Balance = acc.Balance.Add(decimal.NewFromInt(1))
				if err := tx.InsertLedgerEntry(context.Background(), &model.LedgerEntry{
					AccountID: "acc_1", Kind: model.EntryDeposit, Amount: decimal.NewFromInt(1), BalanceAfter: acc.Balance,
				}); err != nil {
					return err
				}
				return tx.UpdateAccount(context.Background(), acc)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	acc, _ := s.GetAccountByID(context.Background(), "acc_1")
	sum, count, _ := s.SumLedgerEntries(context.Background(), "acc_1")
	assert.True(t, decimal.NewFromInt(50).Equal(acc.Balance))
	assert.True(t, sum.Equal(acc.Balance))
	assert.Equal(t, int64(50), count)
}

func TestRunInTx_TimeoutIsConflict(t *testing.T) {
	s := New()
	hold := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = s.RunInTx(context.Background(), func(tx database.Tx) error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.RunInTx(ctx, func(tx database.Tx) error { return nil })
	assert.True(t, apierror.Is(err, apierror.ErrConcurrencyConflict))
	close(hold)
}

func TestNextSequenceValue_Capacity(t *testing.T) {
	s := New()
	var values []int64
	for i := 0; i < 4; i++ {
		err := s.RunInTx(context.Background(), func(tx database.Tx) error {
			v, ok, err := tx.NextSequenceValue(context.Background(), "INV", "2024", 3)
			if ok {
				values = append(values, v)
			}
			return err
		})
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{1, 2, 3}, values)
}

func TestClaimIdentifier_OnlyOnce(t *testing.T) {
	s := New()
	var claims []bool
	for i := 0; i < 2; i++ {
		require.NoError(t, s.RunInTx(context.Background(), func(tx database.Tx) error {
			ok, err := tx.ClaimIdentifier(context.Background(), "PHONE", "1000000001")
			claims = append(claims, ok)
			return err
		}))
	}
	assert.Equal(t, []bool{true, false}, claims)
}

func TestPaymentQueries(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	for _, loan := range []model.Loan{
		{LoanID: "loan_a", CustomerID: "cust_1", Status: model.LoanActive},
		{LoanID: "loan_b", CustomerID: "cust_2", Status: model.LoanActive},
		{LoanID: "loan_c", CustomerID: "cust_1", Status: model.LoanCompleted},
	} {
		_, err := s.CreateLoan(ctx, loan)
		require.NoError(t, err)
	}

	row := func(id, loan string, seq int, due time.Time, status model.PaymentStatus) *model.Payment {
		return &model.Payment{PaymentID: id, LoanID: loan, Sequence: seq, DueDate: due, Status: status,
			ScheduledAmount: decimal.NewFromInt(10), PrincipalDue: decimal.NewFromInt(10)}
	}
	require.NoError(t, s.RunInTx(ctx, func(tx database.Tx) error {
		return tx.InsertPayments(ctx, []*model.Payment{
			row("p1", "loan_a", 1, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), model.PaymentPartial),
			row("p2", "loan_a", 2, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), model.PaymentUnpaid),
			row("p3", "loan_a", 3, time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), model.PaymentUnpaid),
			row("p4", "loan_b", 1, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), model.PaymentUnpaid),
			row("p5", "loan_c", 1, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), model.PaymentUnpaid),
		})
	}))

	overdue, err := s.GetOverduePayments(ctx, "cust_1", now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "p1", overdue[0].PaymentID)

	all, err := s.GetOverduePayments(ctx, "", now)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "p4", all[0].PaymentID)

	upcoming, err := s.GetUpcomingPayments(ctx, "cust_1", now, 1)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "p2", upcoming[0].PaymentID, "a row due today is upcoming, not overdue")

	summary, err := s.GetFinancialTotals(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(40).Equal(summary.TotalActiveLoanPrincipal))
	assert.Equal(t, int64(2), summary.ActiveLoans)
}

func TestGetLedgerEntries_NewestFirstWithPaging(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAccount(t, s, "acc_1", "Main", 0)

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.RunInTx(ctx, func(tx database.Tx) error {
			return tx.InsertLedgerEntry(ctx, &model.LedgerEntry{
				AccountID: "acc_1", Kind: model.EntryDeposit, Amount: decimal.NewFromInt(int64(i)),
				CreatedAt: time.Date(2024, 5, i, 0, 0, 0, 0, time.UTC),
			})
		}))
	}

	entries, err := s.GetLedgerEntries(ctx, model.LogFilter{AccountID: "acc_1", Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(4), entries[0].EntryID)
	assert.Equal(t, int64(3), entries[1].EntryID)

	totals, err := s.GetDailyTotals(ctx, model.EntryDeposit, "", time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "2024-05-02", totals[0].Date)
}
