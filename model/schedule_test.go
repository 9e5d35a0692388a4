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
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, d(expected).Equal(got), append([]interface{}{"expected %s, got %s", expected, got.String()}, msgAndArgs...)...)
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestAccruedInterest(t *testing.T) {
	tests := []struct {
		name     string
		balance  string
		rate     string
		days     int
		expected string
	}{
		{"one month", "1200", "12", 31, "12.23"},
		{"leap february", "800", "12", 29, "7.63"},
		{"ten days", "100000", "10", 10, "273.97"},
		{"zero days", "100000", "10", 0, "0"},
		{"zero rate", "5000", "0", 30, "0"},
		{"negative days", "5000", "10", -3, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.expected, AccruedInterest(d(tt.balance), d(tt.rate), tt.days))
		})
	}
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	start := date(2024, time.January, 31)
	assert.Equal(t, date(2024, time.February, 29), AddMonths(start, 1))
	assert.Equal(t, date(2024, time.March, 31), AddMonths(start, 2))
	assert.Equal(t, date(2024, time.April, 30), AddMonths(start, 3))
	assert.Equal(t, date(2025, time.January, 31), AddMonths(start, 12))
}

func TestGenerateSchedule_Amortizing(t *testing.T) {
	rows, err := GenerateSchedule("loan_1", d("1200"), d("12"), 3, PlanAmortizing, date(2024, time.January, 15))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	expected := []struct {
		due       time.Time
		principal string
		interest  string
	}{
		{date(2024, time.February, 15), "400", "12.23"},
		{date(2024, time.March, 15), "400", "7.63"},
		{date(2024, time.April, 15), "400", "4.08"},
	}
	for i, e := range expected {
		row := rows[i]
		assert.Equal(t, i+1, row.Sequence)
		assert.Equal(t, e.due, row.DueDate)
		assert.Equal(t, PaymentRegular, row.Type)
		assert.Equal(t, PaymentUnpaid, row.Status)
		assert.Equal(t, "loan_1", row.LoanID)
		assertDecimal(t, e.principal, row.PrincipalDue)
		assertDecimal(t, e.interest, row.InterestDue)
		assert.True(t, row.ScheduledAmount.Equal(row.PrincipalDue.Add(row.InterestDue)))
	}
}

func TestGenerateSchedule_ResidueOnLastRow(t *testing.T) {
	rows, err := GenerateSchedule("loan_2", d("100"), d("0"), 3, PlanAmortizing, date(2024, time.May, 1))
	require.NoError(t, err)

	assertDecimal(t, "33.33", rows[0].PrincipalDue)
	assertDecimal(t, "33.33", rows[1].PrincipalDue)
	assertDecimal(t, "33.34", rows[2].PrincipalDue)

	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.PrincipalDue)
		assert.True(t, r.InterestDue.IsZero())
	}
	assertDecimal(t, "100", total)
}

func TestGenerateSchedule_InterestOnly(t *testing.T) {
	rows, err := GenerateSchedule("loan_3", d("1000"), d("12"), 2, PlanInterestOnly, date(2024, time.January, 1))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, PaymentInterestOnly, rows[0].Type)
	assert.True(t, rows[0].PrincipalDue.IsZero())
	assertDecimal(t, "10.19", rows[0].InterestDue)

	assert.Equal(t, PaymentRegular, rows[1].Type)
	assertDecimal(t, "1000", rows[1].PrincipalDue)
	assertDecimal(t, "9.53", rows[1].InterestDue)
}

func TestGenerateSchedule_Invalid(t *testing.T) {
	start := date(2024, time.January, 1)
	tests := []struct {
		name      string
		principal string
		rate      string
		term      int
		plan      RepaymentPlan
		err       error
	}{
		{"zero principal", "0", "5", 12, PlanAmortizing, ErrInvalidPrincipal},
		{"sub-cent principal", "100.005", "5", 12, PlanAmortizing, ErrInvalidPrincipal},
		{"zero term", "100", "5", 0, PlanAmortizing, ErrInvalidTerm},
		{"negative rate", "100", "-1", 12, PlanAmortizing, ErrInvalidRate},
		{"unknown plan", "100", "5", 12, RepaymentPlan("BALLOON"), ErrInvalidPlan},
		{"interest only without rate", "100", "0", 12, PlanInterestOnly, ErrZeroRateInterestOnly},
		{"too small to split", "0.05", "5", 12, PlanAmortizing, ErrPrincipalTooSmall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateSchedule("loan_x", d(tt.principal), d(tt.rate), tt.term, tt.plan, start)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2024, time.March, 1, 23, 59, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(from, to))
	assert.Equal(t, 0, DaysBetween(to, from))
	assert.Equal(t, 366, DaysBetween(date(2024, time.January, 1), date(2025, time.January, 1)))
}

func TestHasMoneyPrecision(t *testing.T) {
	assert.True(t, HasMoneyPrecision(d("10")))
	assert.True(t, HasMoneyPrecision(d("10.25")))
	assert.True(t, HasMoneyPrecision(d("10.250")))
	assert.False(t, HasMoneyPrecision(d("10.255")))
}
