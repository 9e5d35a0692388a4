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

// QuotePayoff computes remaining principal plus simple interest accrued on it
// since the last payment, or since approval when nothing has been paid yet.
func QuotePayoff(loan *Loan, rows []*Payment, asOf time.Time) PayoffQuote {
	paidPrincipal := decimal.Zero
	var lastPayment *time.Time
	for _, p := range rows {
		paidPrincipal = paidPrincipal.Add(p.PaidPrincipal)
		if p.PaymentDate != nil && p.PaidAmount.IsPositive() {
			if lastPayment == nil || p.PaymentDate.After(*lastPayment) {
				lastPayment = p.PaymentDate
			}
		}
	}

	from := loan.CreatedAt
	if loan.ApprovedAt != nil {
		from = *loan.ApprovedAt
	}
	if lastPayment != nil {
		from = *lastPayment
	}

	remaining := loan.ApprovedAmount.Sub(paidPrincipal)
	days := DaysBetween(from, asOf)
	accrued := AccruedInterest(remaining, loan.InterestRate, days)

	return PayoffQuote{
		LoanID:             loan.LoanID,
		RemainingPrincipal: remaining,
		AccruedInterest:    accrued,
		Payoff:             remaining.Add(accrued),
		InterestFrom:       DateOf(from),
		AsOf:               asOf,
		Days:               days,
	}
}
