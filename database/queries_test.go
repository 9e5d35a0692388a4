package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landledger/landledger/internal/apierror"
	"github.com/landledger/landledger/model"
)

var paymentCols = []string{"payment_id", "loan_id", "sequence", "due_date", "type", "principal_due", "interest_due",
	"scheduled_amount", "paid_principal", "paid_interest", "paid_amount", "status", "payment_date", "paid_by",
	"verified", "verified_by", "verified_at", "created_at", "updated_at"}

func TestCreateAccount_DuplicateName(t *testing.T) {
	ds, mock := newMock(t)
	now := time.Now()

	mock.ExpectExec("INSERT INTO landledger.accounts").
		WithArgs("acc_1", "Main", sqlmock.AnyArg(), "ACTIVE", now, now).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := ds.CreateAccount(context.Background(), model.Account{
		AccountID: "acc_1", Name: "Main", Status: model.AccountActive, CreatedAt: now, UpdatedAt: now,
	})
	assert.True(t, apierror.Is(err, apierror.ErrInvalidOperation))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccountByID_NotFound(t *testing.T) {
	ds, mock := newMock(t)

	mock.ExpectQuery("SELECT account_id").
		WithArgs("acc_missing").
		WillReturnRows(sqlmock.NewRows(accountCols))

	account, err := ds.GetAccountByID(context.Background(), "acc_missing")
	assert.Nil(t, account)
	assert.True(t, apierror.Is(err, apierror.ErrNotFound))
}

func TestGetAllAccounts_FilterAndPagination(t *testing.T) {
	ds, mock := newMock(t)
	now := time.Now()
	deleted := now.Add(time.Hour)

	mock.ExpectQuery(`WHERE status = \$1 ORDER BY created_at, account_id LIMIT \$2 OFFSET \$3`).
		WithArgs("DELETED", 10, 20).
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow("acc_1", "Old", "0.00", "DELETED", now, now, deleted))

	accounts, err := ds.GetAllAccounts(context.Background(), model.AccountFilter{Status: model.AccountDeleted, Limit: 10, Offset: 20})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.True(t, accounts[0].IsDeleted())
	require.NotNil(t, accounts[0].DeletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSumLedgerEntries(t *testing.T) {
	ds, mock := newMock(t)

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\), COUNT\\(\\*\\)").
		WithArgs("acc_1").
		WillReturnRows(sqlmock.NewRows([]string{"sum", "count"}).AddRow("-1000.50", int64(3)))

	sum, count, err := ds.SumLedgerEntries(context.Background(), "acc_1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("-1000.5").Equal(sum))
	assert.Equal(t, int64(3), count)
}

func TestGetLedgerEntries_Filters(t *testing.T) {
	ds, mock := newMock(t)
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	mock.ExpectQuery(`WHERE account_id = \$1 AND kind = \$2 AND created_at >= \$3 AND created_at < \$4 ORDER BY entry_id DESC LIMIT \$5`).
		WithArgs("acc_1", "WITHDRAW", from, to, 5).
		WillReturnRows(sqlmock.NewRows([]string{"entry_id", "account_id", "kind", "purpose", "amount", "balance_after",
			"note", "actor_id", "actor_name", "counterpart", "group_id", "reference", "created_at"}).
			AddRow(int64(9), "acc_1", "WITHDRAW", "MANUAL", "-40.00", "60.00", "fees", "admin", "Admin", "", "grp_1", "", from))

	entries, err := ds.GetLedgerEntries(context.Background(), model.LogFilter{
		AccountID: "acc_1", Kind: model.EntryWithdraw, From: &from, To: &to, Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(9), entries[0].EntryID)
	assert.True(t, decimal.NewFromInt(-40).Equal(entries[0].Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLoanByID(t *testing.T) {
	ds, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("SELECT loan_id, customer_id").
		WithArgs("loan_1").
		WillReturnRows(sqlmock.NewRows([]string{"loan_id", "customer_id", "requested_amount", "approved_amount",
			"interest_rate", "term_months", "repayment_plan", "funding_account_id", "status", "valuation",
			"review_notes", "approved_by", "rejected_by", "closed_by", "created_at", "updated_at",
			"approved_at", "rejected_at", "closed_at"}).
			AddRow("loan_1", "cust_1", "5000.00", "4000.00", "12.0000", 6, "AMORTIZING", "acc_1", "ACTIVE",
				[]byte(`{"plot":"A-12","value":25000}`), "", "admin", "", "", now, now, now, nil, nil))

	loan, err := ds.GetLoanByID(context.Background(), "loan_1")
	require.NoError(t, err)
	assert.Equal(t, model.LoanActive, loan.Status)
	assert.Equal(t, model.PlanAmortizing, loan.RepaymentPlan)
	assert.Equal(t, "A-12", loan.Valuation["plot"])
	assert.NotNil(t, loan.ApprovedAt)
	assert.Nil(t, loan.ClosedAt)
}

func TestCreateLoan_StoresValuation(t *testing.T) {
	ds, mock := newMock(t)
	now := time.Now()

	mock.ExpectExec("INSERT INTO landledger.loans").
		WithArgs("loan_1", "cust_1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 12, "INTEREST_ONLY",
			"PENDING", []byte("{}"), "", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := ds.CreateLoan(context.Background(), model.Loan{
		LoanID: "loan_1", CustomerID: "cust_1", RequestedAmount: decimal.NewFromInt(1000),
		InterestRate: decimal.NewFromInt(10), TermMonths: 12, RepaymentPlan: model.PlanInterestOnly,
		Status: model.LoanPending, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOverduePayments(t *testing.T) {
	ds, mock := newMock(t)
	today := time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)
	due := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`p.due_date < \$2::date`).
		WithArgs("cust_1", "2024-06-10").
		WillReturnRows(sqlmock.NewRows(paymentCols).
			AddRow("pay_1", "loan_1", 1, due, "REGULAR", "100.00", "5.00", "105.00", "0", "5.00", "5.00",
				"PARTIAL", due, "admin", false, "", nil, due, due))

	payments, err := ds.GetOverduePayments(context.Background(), "cust_1", today)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentPartial, payments[0].Status)
	assert.True(t, decimal.NewFromInt(100).Equal(payments[0].Remaining()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUpcomingPayments_Limit(t *testing.T) {
	ds, mock := newMock(t)
	today := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`p.due_date >= \$2::date`).
		WithArgs("", "2024-06-10", 3).
		WillReturnRows(sqlmock.NewRows(paymentCols))

	payments, err := ds.GetUpcomingPayments(context.Background(), "", today, 3)
	require.NoError(t, err)
	assert.Empty(t, payments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOverduePayments_DateIsUTCCalendarDay(t *testing.T) {
	ds, mock := newMock(t)
	// 01:00 on June 11 at UTC+3 is still June 10 in UTC.
	today := time.Date(2024, 6, 11, 1, 0, 0, 0, time.FixedZone("EAT", 3*60*60))

	mock.ExpectQuery(`p.due_date < \$2::date`).
		WithArgs("", "2024-06-10").
		WillReturnRows(sqlmock.NewRows(paymentCols))

	_, err := ds.GetOverduePayments(context.Background(), "", today)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFinancialTotals(t *testing.T) {
	ds, mock := newMock(t)

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"principal", "cash", "completed", "active", "done", "accounts"}).
			AddRow("3000.00", "1500.50", "100000.00", int64(2), int64(1), int64(4)))

	summary, err := ds.GetFinancialTotals(context.Background())
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("4500.50").Equal(summary.NetAssets))
	assert.True(t, decimal.NewFromInt(100000).Equal(summary.TotalCompletedLoanAmount))
	assert.Equal(t, int64(2), summary.ActiveLoans)
}

func TestGetDailyTotals(t *testing.T) {
	ds, mock := newMock(t)
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	mock.ExpectQuery("GROUP BY day").
		WithArgs("DEPOSIT", "LOAN_REPAYMENT", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"day", "sum", "count"}).
			AddRow("2024-05-02", "250.00", int64(2)).
			AddRow("2024-05-09", "100.00", int64(1)))

	totals, err := ds.GetDailyTotals(context.Background(), model.EntryDeposit, model.PurposeLoanRepayment, from, to)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "2024-05-02", totals[0].Date)
	assert.Equal(t, int64(1), totals[1].Count)
}
