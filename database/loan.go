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
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/landledger/landledger/model"
)

// CreateLoan records a loan application. Valuation data is stored as JSONB.
func (d Datasource) CreateLoan(ctx context.Context, loan model.Loan) (model.Loan, error) {
	valuation, err := marshalValuation(loan.Valuation)
	if err != nil {
		return loan, err
	}

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO landledger.loans
			(loan_id, customer_id, requested_amount, approved_amount, interest_rate, term_months,
			 repayment_plan, status, valuation, review_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, loan.LoanID, loan.CustomerID, loan.RequestedAmount, loan.ApprovedAmount, loan.InterestRate, loan.TermMonths,
		loan.RepaymentPlan, loan.Status, valuation, loan.ReviewNotes, loan.CreatedAt, loan.UpdatedAt)
	if err != nil {
		return loan, mapError(err, "failed to create loan")
	}
	return loan, nil
}

func (d Datasource) GetLoanByID(ctx context.Context, id string) (*model.Loan, error) {
	row := d.Conn.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM landledger.loans WHERE loan_id = $1`, id)
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Loan", id)
		}
		return nil, mapError(err, "failed to retrieve loan")
	}
	return loan, nil
}

func (d Datasource) GetAllLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + loanColumns + ` FROM landledger.loans`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, loan_id"
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "failed to list loans")
	}
	defer rows.Close()

	loans := []model.Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, mapError(err, "failed to read loan")
		}
		loans = append(loans, *loan)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "failed to list loans")
	}
	return loans, nil
}
