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
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/landledger/landledger/model"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const accountColumns = `account_id, name, balance, status, created_at, updated_at, deleted_at`

const entryColumns = `entry_id, account_id, kind, purpose, amount, balance_after, note, actor_id, actor_name,
	COALESCE(counterpart_account_id, ''), group_id, reference, created_at`

const loanColumns = `loan_id, customer_id, requested_amount, approved_amount, interest_rate, term_months,
	repayment_plan, COALESCE(funding_account_id, ''), status, valuation, review_notes, approved_by,
	rejected_by, closed_by, created_at, updated_at, approved_at, rejected_at, closed_at`

const paymentColumns = `payment_id, loan_id, sequence, due_date, type, principal_due, interest_due,
	scheduled_amount, paid_principal, paid_interest, paid_amount, status, payment_date, paid_by,
	verified, verified_by, verified_at, created_at, updated_at`

// prefixed qualifies a plain column list with a table alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = alias + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanAccount(row rowScanner) (*model.Account, error) {
	acc := &model.Account{}
	var deletedAt sql.NullTime
	err := row.Scan(&acc.AccountID, &acc.Name, &acc.Balance, &acc.Status, &acc.CreatedAt, &acc.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	acc.DeletedAt = timePtr(deletedAt)
	return acc, nil
}

func scanEntry(row rowScanner) (*model.LedgerEntry, error) {
	e := &model.LedgerEntry{}
	err := row.Scan(&e.EntryID, &e.AccountID, &e.Kind, &e.Purpose, &e.Amount, &e.BalanceAfter, &e.Note,
		&e.ActorID, &e.ActorName, &e.CounterpartAccountID, &e.GroupID, &e.Reference, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func scanLoan(row rowScanner) (*model.Loan, error) {
	l := &model.Loan{}
	var valuation []byte
	var approvedAt, rejectedAt, closedAt sql.NullTime
	err := row.Scan(&l.LoanID, &l.CustomerID, &l.RequestedAmount, &l.ApprovedAmount, &l.InterestRate, &l.TermMonths,
		&l.RepaymentPlan, &l.FundingAccountID, &l.Status, &valuation, &l.ReviewNotes, &l.ApprovedBy,
		&l.RejectedBy, &l.ClosedBy, &l.CreatedAt, &l.UpdatedAt, &approvedAt, &rejectedAt, &closedAt)
	if err != nil {
		return nil, err
	}
	if len(valuation) > 0 {
		if err := json.Unmarshal(valuation, &l.Valuation); err != nil {
			return nil, err
		}
	}
	l.ApprovedAt = timePtr(approvedAt)
	l.RejectedAt = timePtr(rejectedAt)
	l.ClosedAt = timePtr(closedAt)
	return l, nil
}

func scanPayment(row rowScanner) (*model.Payment, error) {
	p := &model.Payment{}
	var paymentDate, verifiedAt sql.NullTime
	err := row.Scan(&p.PaymentID, &p.LoanID, &p.Sequence, &p.DueDate, &p.Type, &p.PrincipalDue, &p.InterestDue,
		&p.ScheduledAmount, &p.PaidPrincipal, &p.PaidInterest, &p.PaidAmount, &p.Status, &paymentDate, &p.PaidBy,
		&p.Verified, &p.VerifiedBy, &verifiedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.DueDate = model.DateOf(p.DueDate)
	p.PaymentDate = timePtr(paymentDate)
	p.VerifiedAt = timePtr(verifiedAt)
	return p, nil
}

func scanPayments(rows *sql.Rows) ([]*model.Payment, error) {
	defer rows.Close()
	var payments []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
