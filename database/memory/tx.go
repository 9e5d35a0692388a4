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
	"fmt"
	"sort"

	"github.com/landledger/landledger/internal/apierror"
	"github.com/landledger/landledger/model"
)

// memTx works on the private copy owned by one RunInTx call. Records handed
// out are copies; changes land only through the Update and Insert methods.
type memTx struct {
	st *state
}

func notFound(entity, id string) error {
	return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("%s with ID '%s' not found", entity, id), nil)
}

func (t *memTx) LockAccounts(_ context.Context, ids ...string) (map[string]*model.Account, error) {
	locked := make(map[string]*model.Account, len(ids))
	for _, id := range ids {
		acc, ok := t.st.accounts[id]
		if !ok {
			return nil, notFound("Account", id)
		}
		cp := *acc
		locked[id] = &cp
	}
	return locked, nil
}

func (t *memTx) UpdateAccount(_ context.Context, account *model.Account) error {
	if _, ok := t.st.accounts[account.AccountID]; !ok {
		return notFound("Account", account.AccountID)
	}
	if account.Balance.IsNegative() {
		return apierror.NewAPIError(apierror.ErrInvalidOperation, "operation rejected by a store constraint", nil)
	}
	for id, other := range t.st.accounts {
		if id != account.AccountID && other.Name == account.Name {
			return apierror.NewAPIError(apierror.ErrInvalidOperation, "a record with the same unique value already exists", nil)
		}
	}
	cp := *account
	t.st.accounts[account.AccountID] = &cp
	return nil
}

func (t *memTx) InsertLedgerEntry(_ context.Context, entry *model.LedgerEntry) error {
	if _, ok := t.st.accounts[entry.AccountID]; !ok {
		return notFound("Account", entry.AccountID)
	}
	t.st.nextEntryID++
	entry.EntryID = t.st.nextEntryID
	cp := *entry
	t.st.entries = append(t.st.entries, &cp)
	return nil
}

func (t *memTx) LockLoan(_ context.Context, id string) (*model.Loan, error) {
	loan, ok := t.st.loans[id]
	if !ok {
		return nil, notFound("Loan", id)
	}
	cp := *loan
	return &cp, nil
}

func (t *memTx) UpdateLoan(_ context.Context, loan *model.Loan) error {
	if _, ok := t.st.loans[loan.LoanID]; !ok {
		return notFound("Loan", loan.LoanID)
	}
	cp := *loan
	t.st.loans[loan.LoanID] = &cp
	return nil
}

func (t *memTx) ActiveLoansFundedBy(_ context.Context, accountID string) ([]string, error) {
	var ids []string
	for _, id := range t.st.loanOrder {
		loan := t.st.loans[id]
		if loan.Status == model.LoanActive && loan.FundingAccountID == accountID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (t *memTx) LockPayments(_ context.Context, loanID string) ([]*model.Payment, error) {
	return paymentsOf(t.st, loanID), nil
}

func (t *memTx) LockPayment(_ context.Context, id string) (*model.Payment, error) {
	p, ok := t.st.payments[id]
	if !ok {
		return nil, notFound("Payment", id)
	}
	cp := *p
	return &cp, nil
}

func (t *memTx) InsertPayments(_ context.Context, payments []*model.Payment) error {
	for _, p := range payments {
		if _, ok := t.st.loans[p.LoanID]; !ok {
			return notFound("Loan", p.LoanID)
		}
		if _, exists := t.st.payments[p.PaymentID]; exists {
			return apierror.NewAPIError(apierror.ErrInvalidOperation, "a record with the same unique value already exists", nil)
		}
		for _, other := range t.st.payments {
			if other.LoanID == p.LoanID && other.Sequence == p.Sequence {
				return apierror.NewAPIError(apierror.ErrInvalidOperation, "a record with the same unique value already exists", nil)
			}
		}
		cp := *p
		t.st.payments[p.PaymentID] = &cp
	}
	return nil
}

func (t *memTx) UpdatePayment(_ context.Context, p *model.Payment) error {
	if _, ok := t.st.payments[p.PaymentID]; !ok {
		return notFound("Payment", p.PaymentID)
	}
	if p.PaidAmount.GreaterThan(p.ScheduledAmount) {
		return apierror.NewAPIError(apierror.ErrInvalidOperation, "operation rejected by a store constraint", nil)
	}
	cp := *p
	t.st.payments[p.PaymentID] = &cp
	return nil
}

func (t *memTx) NextSequenceValue(_ context.Context, seqType, period string, capacity int64) (int64, bool, error) {
	key := seqKey{kind: seqType, value: period}
	current := t.st.sequences[key]
	if current >= capacity {
		return 0, false, nil
	}
	t.st.sequences[key] = current + 1
	return current + 1, true, nil
}

func (t *memTx) ClaimIdentifier(_ context.Context, seqType, identifier string) (bool, error) {
	key := seqKey{kind: seqType, value: identifier}
	if _, taken := t.st.identifiers[key]; taken {
		return false, nil
	}
	t.st.identifiers[key] = struct{}{}
	return true, nil
}

// paymentsOf returns copies of a loan's rows in application order.
func paymentsOf(st *state, loanID string) []*model.Payment {
	var rows []*model.Payment
	for _, p := range st.payments {
		if p.LoanID == loanID {
			cp := *p
			rows = append(rows, &cp)
		}
	}
	model.SortByDueDate(rows)
	return rows
}

// sortPayments orders rows across loans by due date, loan and sequence.
func sortPayments(rows []*model.Payment) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if a.LoanID != b.LoanID {
			return a.LoanID < b.LoanID
		}
		return a.Sequence < b.Sequence
	})
}
