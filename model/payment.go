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

package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentRegular      PaymentType = "REGULAR"
	PaymentInterestOnly PaymentType = "INTEREST_ONLY"
	PaymentCloseOut     PaymentType = "CLOSE_OUT"
)

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
	// PaymentSettled marks installments superseded by a close-out payment.
	PaymentSettled PaymentStatus = "SETTLED"
)

// Payment is one installment row of a loan schedule, or the single CLOSE_OUT row
// that settles a loan early.
type Payment struct {
	PaymentID       string          `json:"payment_id"`
	LoanID          string          `json:"loan_id"`
	Sequence        int             `json:"sequence"`
	DueDate         time.Time       `json:"due_date"`
	Type            PaymentType     `json:"type"`
	PrincipalDue    decimal.Decimal `json:"principal_due"`
	InterestDue     decimal.Decimal `json:"interest_due"`
	ScheduledAmount decimal.Decimal `json:"scheduled_amount"`
	PaidPrincipal   decimal.Decimal `json:"paid_principal"`
	PaidInterest    decimal.Decimal `json:"paid_interest"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	Status          PaymentStatus   `json:"status"`
	PaymentDate     *time.Time      `json:"payment_date,omitempty"`
	PaidBy          string          `json:"paid_by,omitempty"`
	Verified        bool            `json:"verified"`
	VerifiedBy      string          `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time      `json:"verified_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (p *Payment) IsOutstanding() bool {
	return p.Status == PaymentUnpaid || p.Status == PaymentPartial
}

func (p *Payment) RemainingInterest() decimal.Decimal {
	return p.InterestDue.Sub(p.PaidInterest)
}

func (p *Payment) RemainingPrincipal() decimal.Decimal {
	return p.PrincipalDue.Sub(p.PaidPrincipal)
}

func (p *Payment) Remaining() decimal.Decimal {
	return p.ScheduledAmount.Sub(p.PaidAmount)
}

// SortByDueDate orders rows by due date, then by schedule sequence.
func SortByDueDate(rows []*Payment) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DueDate.Equal(rows[j].DueDate) {
			return rows[i].Sequence < rows[j].Sequence
		}
		return rows[i].DueDate.Before(rows[j].DueDate)
	})
}

// OutstandingObligation sums what is still owed on the outstanding rows.
func OutstandingObligation(rows []*Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range rows {
		if p.IsOutstanding() {
			total = total.Add(p.Remaining())
		}
	}
	return total
}

// PaymentResult describes what a payInstallment call did.
type PaymentResult struct {
	LoanID      string          `json:"loan_id"`
	Amount      decimal.Decimal `json:"amount"`
	Allocations []Allocation    `json:"allocations"`
	Payments    []*Payment      `json:"payments"`
	LoanStatus  LoanStatus      `json:"loan_status"`
	Remaining   decimal.Decimal `json:"remaining_obligation"`
	EntryID     int64           `json:"entry_id"`
	// Payoff is set when the payment closed the loan out early.
	Payoff      *PayoffQuote    `json:"payoff,omitempty"`
}
