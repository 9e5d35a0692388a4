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

// Allocation is the share of one payment applied to one installment.
type Allocation struct {
	PaymentID string          `json:"payment_id"`
	Sequence  int             `json:"sequence"`
	Interest  decimal.Decimal `json:"interest"`
	Principal decimal.Decimal `json:"principal"`
}

// ApplyPayment spreads amount over the outstanding rows in due date order. Each
// row takes interest before principal and the next row is only touched once the
// previous one is fully paid. Rows are mutated in place; the unapplied remainder
// is returned.
func ApplyPayment(rows []*Payment, amount decimal.Decimal, at time.Time, actorID string) ([]Allocation, decimal.Decimal) {
	SortByDueDate(rows)

	var allocations []Allocation
	for _, p := range rows {
		if !p.IsOutstanding() {
			continue
		}
		if !amount.IsPositive() && p.Remaining().IsPositive() {
			break
		}

		interest := decimal.Min(amount, p.RemainingInterest())
		amount = amount.Sub(interest)
		principal := decimal.Min(amount, p.RemainingPrincipal())
		amount = amount.Sub(principal)

		if interest.IsPositive() || principal.IsPositive() {
			paidAt := at
			p.PaidInterest = p.PaidInterest.Add(interest)
			p.PaidPrincipal = p.PaidPrincipal.Add(principal)
			p.PaidAmount = p.PaidInterest.Add(p.PaidPrincipal)
			p.PaymentDate = &paidAt
			p.PaidBy = actorID
			p.UpdatedAt = at
			allocations = append(allocations, Allocation{
				PaymentID: p.PaymentID,
				Sequence:  p.Sequence,
				Interest:  interest,
				Principal: principal,
			})
		}

		switch {
		case !p.Remaining().IsPositive():
			p.Status = PaymentPaid
		case p.PaidAmount.IsPositive():
			p.Status = PaymentPartial
		}
	}
	return allocations, amount
}
