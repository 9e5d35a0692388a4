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
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrincipal     = errors.New("principal must be a positive amount with at most two decimal places")
	ErrPrincipalTooSmall    = errors.New("principal is too small to split across the term")
	ErrInvalidTerm          = errors.New("term must be at least one month")
	ErrInvalidRate          = errors.New("interest rate must not be negative")
	ErrInvalidPlan          = errors.New("unknown repayment plan")
	ErrZeroRateInterestOnly = errors.New("interest-only plans require a positive interest rate")
)

var (
	hundred    = decimal.NewFromInt(100)
	daysInYear = decimal.NewFromInt(365)
)

// AccruedInterest is simple interest on balance for days calendar days at an
// annual percentage rate, actual/365, rounded half away from zero to cents.
func AccruedInterest(balance, annualRate decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 || !balance.IsPositive() || !annualRate.IsPositive() {
		return decimal.Zero
	}
	return balance.
		Mul(annualRate).
		Mul(decimal.NewFromInt(int64(days))).
		Div(hundred.Mul(daysInYear)).
		Round(MoneyPlaces)
}

// AddMonths moves t forward by months, clamping the day to the end of shorter months.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// GenerateSchedule builds the installment rows of a loan approved on start.
//
// AMORTIZING repays equal principal portions truncated to cents, and the last row
// takes the residue so the principal column sums to principal exactly.
// INTEREST_ONLY charges interest each month and returns the principal with the
// final row. Interest is charged on the declining balance for the days between
// consecutive due dates.
func GenerateSchedule(loanID string, principal, annualRate decimal.Decimal, termMonths int, plan RepaymentPlan, start time.Time) ([]*Payment, error) {
	if !principal.IsPositive() || !HasMoneyPrecision(principal) {
		return nil, ErrInvalidPrincipal
	}
	if termMonths < 1 {
		return nil, ErrInvalidTerm
	}
	if annualRate.IsNegative() {
		return nil, ErrInvalidRate
	}
	if !plan.Valid() {
		return nil, ErrInvalidPlan
	}
	if plan == PlanInterestOnly && !annualRate.IsPositive() {
		return nil, ErrZeroRateInterestOnly
	}

	portion := principal.Div(decimal.NewFromInt(int64(termMonths))).Truncate(MoneyPlaces)
	if plan == PlanAmortizing && !portion.IsPositive() {
		return nil, ErrPrincipalTooSmall
	}

	start = DateOf(start)
	balance := principal
	prev := start
	rows := make([]*Payment, 0, termMonths)
	for i := 1; i <= termMonths; i++ {
		due := AddMonths(start, i)
		interest := AccruedInterest(balance, annualRate, DaysBetween(prev, due))

		principalDue := decimal.Zero
		paymentType := PaymentRegular
		switch {
		case i == termMonths:
			principalDue = balance
		case plan == PlanAmortizing:
			principalDue = portion
		default:
			paymentType = PaymentInterestOnly
		}

		rows = append(rows, &Payment{
			PaymentID:       GenerateUUIDWithSuffix("pay"),
			LoanID:          loanID,
			Sequence:        i,
			DueDate:         due,
			Type:            paymentType,
			PrincipalDue:    principalDue,
			InterestDue:     interest,
			ScheduledAmount: principalDue.Add(interest),
			PaidPrincipal:   decimal.Zero,
			PaidInterest:    decimal.Zero,
			PaidAmount:      decimal.Zero,
			Status:          PaymentUnpaid,
		})

		balance = balance.Sub(principalDue)
		prev = due
	}
	return rows, nil
}
