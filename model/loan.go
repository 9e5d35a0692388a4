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
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanPending   LoanStatus = "PENDING"
	LoanActive    LoanStatus = "ACTIVE"
	LoanCompleted LoanStatus = "COMPLETED"
	LoanRejected  LoanStatus = "REJECTED"
)

type RepaymentPlan string

const (
	PlanAmortizing   RepaymentPlan = "AMORTIZING"
	PlanInterestOnly RepaymentPlan = "INTEREST_ONLY"
)

func (p RepaymentPlan) Valid() bool {
	return p == PlanAmortizing || p == PlanInterestOnly
}

// Loan moves PENDING -> ACTIVE -> COMPLETED, or PENDING -> REJECTED.
// InterestRate is the annual simple rate in percent.
type Loan struct {
	LoanID           string                 `json:"loan_id"`
	CustomerID       string                 `json:"customer_id"`
	RequestedAmount  decimal.Decimal        `json:"requested_amount"`
	ApprovedAmount   decimal.Decimal        `json:"approved_amount"`
	InterestRate     decimal.Decimal        `json:"interest_rate"`
	TermMonths       int                    `json:"term_months"`
	RepaymentPlan    RepaymentPlan          `json:"repayment_plan"`
	FundingAccountID string                 `json:"funding_account_id,omitempty"`
	Status           LoanStatus             `json:"status"`
	Valuation        map[string]interface{} `json:"valuation,omitempty"`
	ReviewNotes      string                 `json:"review_notes,omitempty"`
	ApprovedBy       string                 `json:"approved_by,omitempty"`
	RejectedBy       string                 `json:"rejected_by,omitempty"`
	ClosedBy         string                 `json:"closed_by,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
	ApprovedAt       *time.Time             `json:"approved_at,omitempty"`
	RejectedAt       *time.Time             `json:"rejected_at,omitempty"`
	ClosedAt         *time.Time             `json:"closed_at,omitempty"`
}

// LoanApplication holds what a customer submits before review.
type LoanApplication struct {
	CustomerID      string                 `json:"customer_id"`
	RequestedAmount decimal.Decimal        `json:"requested_amount"`
	InterestRate    decimal.Decimal        `json:"interest_rate"`
	TermMonths      int                    `json:"term_months"`
	RepaymentPlan   RepaymentPlan          `json:"repayment_plan"`
	Valuation       map[string]interface{} `json:"valuation,omitempty"`
}

type LoanFilter struct {
	CustomerID string
	Status     LoanStatus
	Limit      int
	Offset     int
}

// PayoffQuote is the amount that settles a loan in full on AsOf.
type PayoffQuote struct {
	LoanID             string          `json:"loan_id"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
	AccruedInterest    decimal.Decimal `json:"accrued_interest"`
	Payoff             decimal.Decimal `json:"payoff"`
	InterestFrom       time.Time       `json:"interest_from"`
	AsOf               time.Time       `json:"as_of"`
	Days               int             `json:"days"`
}

// LoanApproval is the outcome of approving a loan: the activated loan, its
// installment schedule and the disbursement entry on the funding account.
type LoanApproval struct {
	Loan         *Loan        `json:"loan"`
	Schedule     []*Payment   `json:"schedule"`
	Disbursement *LedgerEntry `json:"disbursement"`
}
