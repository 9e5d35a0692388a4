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
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/landledger/landledger/model"
)

// GetFinancialTotals reads the committed aggregates behind the financial summary.
// It never locks rows.
func (d Datasource) GetFinancialTotals(ctx context.Context) (*model.FinancialSummary, error) {
	summary := &model.FinancialSummary{}
	err := d.Conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COALESCE(SUM(p.principal_due - p.paid_principal), 0)
			   FROM landledger.payments p
			   JOIN landledger.loans l ON l.loan_id = p.loan_id
			  WHERE l.status = 'ACTIVE' AND p.status IN ('UNPAID', 'PARTIAL')),
			(SELECT COALESCE(SUM(balance), 0) FROM landledger.accounts),
			(SELECT COALESCE(SUM(approved_amount), 0) FROM landledger.loans WHERE status = 'COMPLETED'),
			(SELECT COUNT(*) FROM landledger.loans WHERE status = 'ACTIVE'),
			(SELECT COUNT(*) FROM landledger.loans WHERE status = 'COMPLETED'),
			(SELECT COUNT(*) FROM landledger.accounts WHERE status = 'ACTIVE')
	`).Scan(&summary.TotalActiveLoanPrincipal, &summary.TotalCashInAccounts, &summary.TotalCompletedLoanAmount,
		&summary.ActiveLoans, &summary.CompletedLoans, &summary.Accounts)
	if err != nil {
		return nil, mapError(err, "failed to compute financial totals")
	}
	summary.NetAssets = summary.TotalActiveLoanPrincipal.Add(summary.TotalCashInAccounts)
	return summary, nil
}

// GetDailyTotals sums absolute entry amounts per UTC day in [from, to).
func (d Datasource) GetDailyTotals(ctx context.Context, kind model.EntryKind, purpose model.EntryPurpose, from, to time.Time) ([]model.DailyTotal, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, SUM(ABS(amount)), COUNT(*)
		FROM landledger.ledger_entries
		WHERE kind = $1 AND purpose = $2 AND created_at >= $3 AND created_at < $4
		GROUP BY day
		ORDER BY day
	`, kind, purpose, from, to)
	if err != nil {
		return nil, mapError(err, "failed to compute daily totals")
	}
	defer rows.Close()

	totals := []model.DailyTotal{}
	for rows.Next() {
		var (
			day   string
			total decimal.Decimal
			count int64
		)
		if err := rows.Scan(&day, &total, &count); err != nil {
			return nil, mapError(err, "failed to read daily totals")
		}
		totals = append(totals, model.DailyTotal{Date: day, Total: total, Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "failed to compute daily totals")
	}
	return totals, nil
}
