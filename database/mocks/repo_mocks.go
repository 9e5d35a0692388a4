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
package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/landledger/landledger/database"
	"github.com/landledger/landledger/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Account methods

func (m *MockDataSource) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(model.Account), args.Error(1)
}

func (m *MockDataSource) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	args := m.Called(ctx, id)
	acc, _ := args.Get(0).(*model.Account)
	return acc, args.Error(1)
}

func (m *MockDataSource) GetAllAccounts(ctx context.Context, filter model.AccountFilter) ([]model.Account, error) {
	args := m.Called(ctx, filter)
	accounts, _ := args.Get(0).([]model.Account)
	return accounts, args.Error(1)
}

// Ledger log methods

func (m *MockDataSource) GetLedgerEntries(ctx context.Context, filter model.LogFilter) ([]model.LedgerEntry, error) {
	args := m.Called(ctx, filter)
	entries, _ := args.Get(0).([]model.LedgerEntry)
	return entries, args.Error(1)
}

func (m *MockDataSource) SumLedgerEntries(ctx context.Context, accountID string) (decimal.Decimal, int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(decimal.Decimal), args.Get(1).(int64), args.Error(2)
}

// Loan methods

func (m *MockDataSource) CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error) {
	args := m.Called(ctx, loan)
	return args.Get(0).(model.Loan), args.Error(1)
}

func (m *MockDataSource) GetLoanByID(ctx context.Context, id string) (*model.Loan, error) {
	args := m.Called(ctx, id)
	loan, _ := args.Get(0).(*model.Loan)
	return loan, args.Error(1)
}

func (m *MockDataSource) GetAllLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	args := m.Called(ctx, filter)
	loans, _ := args.Get(0).([]model.Loan)
	return loans, args.Error(1)
}

// Payment methods

func (m *MockDataSource) GetPaymentByID(ctx context.Context, id string) (*model.Payment, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Payment)
	return p, args.Error(1)
}

func (m *MockDataSource) GetPaymentsByLoan(ctx context.Context, loanID string) ([]*model.Payment, error) {
	args := m.Called(ctx, loanID)
	rows, _ := args.Get(0).([]*model.Payment)
	return rows, args.Error(1)
}

func (m *MockDataSource) GetOverduePayments(ctx context.Context, customerID string, today time.Time) ([]*model.Payment, error) {
	args := m.Called(ctx, customerID, today)
	rows, _ := args.Get(0).([]*model.Payment)
	return rows, args.Error(1)
}

func (m *MockDataSource) GetUpcomingPayments(ctx context.Context, customerID string, today time.Time, limit int) ([]*model.Payment, error) {
	args := m.Called(ctx, customerID, today, limit)
	rows, _ := args.Get(0).([]*model.Payment)
	return rows, args.Error(1)
}

// Report methods

func (m *MockDataSource) GetFinancialTotals(ctx context.Context) (*model.FinancialSummary, error) {
	args := m.Called(ctx)
	summary, _ := args.Get(0).(*model.FinancialSummary)
	return summary, args.Error(1)
}

func (m *MockDataSource) GetDailyTotals(ctx context.Context, kind model.EntryKind, purpose model.EntryPurpose, from, to time.Time) ([]model.DailyTotal, error) {
	args := m.Called(ctx, kind, purpose, from, to)
	totals, _ := args.Get(0).([]model.DailyTotal)
	return totals, args.Error(1)
}

// RunInTx runs fn against the Tx returned by the expectation, if any, and then
// returns the expectation's error.
func (m *MockDataSource) RunInTx(ctx context.Context, fn func(tx database.Tx) error) error {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(database.Tx); ok {
		if err := fn(tx); err != nil {
			return err
		}
	}
	return args.Error(1)
}
