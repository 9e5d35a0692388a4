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

package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/landledger/landledger/internal/apierror"
	"github.com/landledger/landledger/model"
)

func (s *Store) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	err := s.write(ctx, func(st *state) error {
		if _, exists := st.accounts[account.AccountID]; exists {
			return apierror.NewAPIError(apierror.ErrInvalidOperation, "a record with the same unique value already exists", nil)
		}
		for _, other := range st.accounts {
			if other.Name == account.Name {
				return apierror.NewAPIError(apierror.ErrInvalidOperation, "a record with the same unique value already exists", nil)
			}
		}
		cp := account
		st.accounts[account.AccountID] = &cp
		st.accountOrder = append(st.accountOrder, account.AccountID)
		return nil
	})
	return account, err
}

func (s *Store) GetAccountByID(_ context.Context, id string) (*model.Account, error) {
	acc, ok := s.snapshot().accounts[id]
	if !ok {
		return nil, notFound("Account", id)
	}
	cp := *acc
	return &cp, nil
}

func (s *Store) GetAllAccounts(_ context.Context, filter model.AccountFilter) ([]model.Account, error) {
	st := s.snapshot()
	accounts := []model.Account{}
	for _, id := range st.accountOrder {
		acc := st.accounts[id]
		if filter.Status != "" && acc.Status != filter.Status {
			continue
		}
		accounts = append(accounts, *acc)
	}
	return page(accounts, filter.Limit, filter.Offset), nil
}

// GetLedgerEntries walks the log backwards so results come newest first.
func (s *Store) GetLedgerEntries(_ context.Context, filter model.LogFilter) ([]model.LedgerEntry, error) {
	st := s.snapshot()
	entries := []model.LedgerEntry{}
	for i := len(st.entries) - 1; i >= 0; i-- {
		if filter.Matches(st.entries[i]) {
			entries = append(entries, *st.entries[i])
		}
	}
	return page(entries, filter.Limit, filter.Offset), nil
}

func (s *Store) SumLedgerEntries(_ context.Context, accountID string) (decimal.Decimal, int64, error) {
	sum := decimal.Zero
	var count int64
	for _, e := range s.snapshot().entries {
		if e.AccountID == accountID {
			sum = sum.Add(e.Amount)
			count++
		}
	}
	return sum, count, nil
}

func (s *Store) CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error) {
	err := s.write(ctx, func(st *state) error {
		if _, exists := st.loans[loan.LoanID]; exists {
			return apierror.NewAPIError(apierror.ErrInvalidOperation, "a record with the same unique value already exists", nil)
		}
		cp := loan
		st.loans[loan.LoanID] = &cp
		st.loanOrder = append(st.loanOrder, loan.LoanID)
		return nil
	})
	return loan, err
}

func (s *Store) GetLoanByID(_ context.Context, id string) (*model.Loan, error) {
	loan, ok := s.snapshot().loans[id]
	if !ok {
		return nil, notFound("Loan", id)
	}
	cp := *loan
	return &cp, nil
}

// GetAllLoans lists loans newest first.
func (s *Store) GetAllLoans(_ context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	st := s.snapshot()
	loans := []model.Loan{}
	for i := len(st.loanOrder) - 1; i >= 0; i-- {
		loan := st.loans[st.loanOrder[i]]
		if filter.CustomerID != "" && loan.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && loan.Status != filter.Status {
			continue
		}
		loans = append(loans, *loan)
	}
	return page(loans, filter.Limit, filter.Offset), nil
}

func (s *Store) GetPaymentByID(_ context.Context, id string) (*model.Payment, error) {
	p, ok := s.snapshot().payments[id]
	if !ok {
		return nil, notFound("Payment", id)
	}
	cp := *p
	return &cp, nil
}

func (s *Store) GetPaymentsByLoan(_ context.Context, loanID string) ([]*model.Payment, error) {
	return paymentsOf(s.snapshot(), loanID), nil
}

func (s *Store) GetOverduePayments(_ context.Context, customerID string, today time.Time) ([]*model.Payment, error) {
	day := model.DateOf(today)
	rows := s.outstanding(customerID, func(p *model.Payment) bool { return p.DueDate.Before(day) })
	return rows, nil
}

func (s *Store) GetUpcomingPayments(_ context.Context, customerID string, today time.Time, limit int) ([]*model.Payment, error) {
	day := model.DateOf(today)
	rows := s.outstanding(customerID, func(p *model.Payment) bool { return !p.DueDate.Before(day) })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// outstanding collects unpaid rows of active loans that satisfy keep.
func (s *Store) outstanding(customerID string, keep func(p *model.Payment) bool) []*model.Payment {
	st := s.snapshot()
	rows := []*model.Payment{}
	for _, p := range st.payments {
		loan := st.loans[p.LoanID]
		if loan == nil || loan.Status != model.LoanActive {
			continue
		}
		if customerID != "" && loan.CustomerID != customerID {
			continue
		}
		if !p.IsOutstanding() || !keep(p) {
			continue
		}
		cp := *p
		rows = append(rows, &cp)
	}
	sortPayments(rows)
	return rows
}

func (s *Store) GetFinancialTotals(_ context.Context) (*model.FinancialSummary, error) {
	st := s.snapshot()
	summary := &model.FinancialSummary{}
	for _, acc := range st.accounts {
		summary.TotalCashInAccounts = summary.TotalCashInAccounts.Add(acc.Balance)
		if acc.Status == model.AccountActive {
			summary.Accounts++
		}
	}
	for _, loan := range st.loans {
		switch loan.Status {
		case model.LoanActive:
			summary.ActiveLoans++
		case model.LoanCompleted:
			summary.CompletedLoans++
			summary.TotalCompletedLoanAmount = summary.TotalCompletedLoanAmount.Add(loan.ApprovedAmount)
		}
	}
	for _, p := range st.payments {
		loan := st.loans[p.LoanID]
		if loan != nil && loan.Status == model.LoanActive && p.IsOutstanding() {
			summary.TotalActiveLoanPrincipal = summary.TotalActiveLoanPrincipal.Add(p.RemainingPrincipal())
		}
	}
	summary.NetAssets = summary.TotalActiveLoanPrincipal.Add(summary.TotalCashInAccounts)
	return summary, nil
}

func (s *Store) GetDailyTotals(_ context.Context, kind model.EntryKind, purpose model.EntryPurpose, from, to time.Time) ([]model.DailyTotal, error) {
	byDay := make(map[string]*model.DailyTotal)
	for _, e := range s.snapshot().entries {
		if e.Kind != kind || e.Purpose != purpose || e.CreatedAt.Before(from) || !e.CreatedAt.Before(to) {
			continue
		}
		day := e.CreatedAt.UTC().Format("2006-01-02")
		total, ok := byDay[day]
		if !ok {
			total = &model.DailyTotal{Date: day}
			byDay[day] = total
		}
		total.Total = total.Total.Add(e.Amount.Abs())
		total.Count++
	}

	totals := make([]model.DailyTotal, 0, len(byDay))
	for _, t := range byDay {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date < totals[j].Date })
	return totals, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
