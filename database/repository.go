/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/landledger/landledger/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
// Plain methods read committed state without taking locks. Every mutation of a
// balance, loan, payment or counter goes through RunInTx.
type IDataSource interface {
	account    // Interface for account-related operations
	ledgerLog  // Interface for the append-only account log
	loan       // Interface for loan-related operations
	payment    // Interface for installment rows
	report     // Interface for read-only aggregates
	transactor // Interface for locked units of work
}

type account interface {
	// Creates a new account
	CreateAccount(ctx context.Context, account model.Account) (model.Account, error)
	// Retrieves an account by ID
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	// Lists accounts, optionally by status
	GetAllAccounts(ctx context.Context, filter model.AccountFilter) ([]model.Account, error)
}

type ledgerLog interface {
	// Lists entries newest first
	GetLedgerEntries(ctx context.Context, filter model.LogFilter) ([]model.LedgerEntry, error)
	// Sum and count of an account's entries
	SumLedgerEntries(ctx context.Context, accountID string) (decimal.Decimal, int64, error)
}

type loan interface {
	// Records a loan application
	CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error)
	// Retrieves a loan by ID
	GetLoanByID(ctx context.Context, id string) (*model.Loan, error)
	// Lists loans
	GetAllLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error)
}

type payment interface {
	GetPaymentByID(ctx context.Context, id string) (*model.Payment, error)
	GetPaymentsByLoan(ctx context.Context, loanID string) ([]*model.Payment, error)
	GetOverduePayments(ctx context.Context, customerID string, today time.Time) ([]*model.Payment, error)
	GetUpcomingPayments(ctx context.Context, customerID string, today time.Time, limit int) ([]*model.Payment, error)
}

type report interface {
	GetFinancialTotals(ctx context.Context) (*model.FinancialSummary, error)
	GetDailyTotals(ctx context.Context, kind model.EntryKind, purpose model.EntryPurpose, from, to time.Time) ([]model.DailyTotal, error)
}

type transactor interface {
	// RunInTx runs fn in one atomic unit. The unit commits only when fn returns nil.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the row-locking primitives available inside RunInTx. Lock methods
// hold their rows until the unit ends. Callers lock loans before accounts, and
// LockAccounts always locks in ascending id order.
type Tx interface {
	LockAccounts(ctx context.Context, ids ...string) (map[string]*model.Account, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
	InsertLedgerEntry(ctx context.Context, entry *model.LedgerEntry) error

	LockLoan(ctx context.Context, id string) (*model.Loan, error)
	UpdateLoan(ctx context.Context, loan *model.Loan) error
	// ActiveLoansFundedBy lists ACTIVE loans disbursed from accountID. Call it
	// after locking the account: approvals lock the account before activating a
	// loan, so the answer cannot change until the unit ends.
	ActiveLoansFundedBy(ctx context.Context, accountID string) ([]string, error)

	LockPayments(ctx context.Context, loanID string) ([]*model.Payment, error)
	LockPayment(ctx context.Context, id string) (*model.Payment, error)
	InsertPayments(ctx context.Context, payments []*model.Payment) error
	UpdatePayment(ctx context.Context, payment *model.Payment) error

	// NextSequenceValue increments the (seqType, period) counter unless it already
	// reached capacity, in which case ok is false.
	NextSequenceValue(ctx context.Context, seqType, period string, capacity int64) (value int64, ok bool, err error)
	// ClaimIdentifier records identifier as issued. claimed is false when it already was.
	ClaimIdentifier(ctx context.Context, seqType, identifier string) (claimed bool, err error)
}
