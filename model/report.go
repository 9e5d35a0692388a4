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

// FinancialSummary is derived from committed ledger and loan state only.
type FinancialSummary struct {
	TotalActiveLoanPrincipal decimal.Decimal `json:"total_active_loan_principal"`
	TotalCashInAccounts      decimal.Decimal `json:"total_cash_in_accounts"`
	NetAssets                decimal.Decimal `json:"net_assets"`
	TotalCompletedLoanAmount decimal.Decimal `json:"total_completed_loan_amount"`
	ActiveLoans              int64           `json:"active_loans"`
	CompletedLoans           int64           `json:"completed_loans"`
	Accounts                 int64           `json:"accounts"`
	GeneratedAt              time.Time       `json:"generated_at"`
}

type MonthlyKind string

const (
	MonthlyDeposits      MonthlyKind = "deposits"
	MonthlyWithdrawals   MonthlyKind = "withdrawals"
	MonthlyTransfers     MonthlyKind = "transfers"
	MonthlyLoanDisbursed MonthlyKind = "loan_disbursed"
	MonthlyLoanRepaid    MonthlyKind = "loan_repaid"
)

// EntrySelector maps a report kind to the ledger rows it sums.
func (k MonthlyKind) EntrySelector() (EntryKind, EntryPurpose, bool) {
	switch k {
	case MonthlyDeposits:
		return EntryDeposit, PurposeManual, true
	case MonthlyWithdrawals:
		return EntryWithdraw, PurposeManual, true
	case MonthlyTransfers:
		return EntryTransferOut, PurposeManual, true
	case MonthlyLoanDisbursed:
		return EntryWithdraw, PurposeLoanDisbursement, true
	case MonthlyLoanRepaid:
		return EntryDeposit, PurposeLoanRepayment, true
	}
	return "", "", false
}

// DailyTotal sums absolute entry amounts for one UTC day.
type DailyTotal struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

type MonthlyDetails struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Kind  MonthlyKind     `json:"kind"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
	Days  []DailyTotal    `json:"days"`
}
