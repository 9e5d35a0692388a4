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
	"time"

	"github.com/landledger/landledger/model"
)

func (d Datasource) GetPaymentByID(ctx context.Context, id string) (*model.Payment, error) {
	row := d.Conn.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM landledger.payments WHERE payment_id = $1`, id)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Payment", id)
		}
		return nil, mapError(err, "failed to retrieve payment")
	}
	return p, nil
}

// GetPaymentsByLoan returns the loan's schedule in application order.
func (d Datasource) GetPaymentsByLoan(ctx context.Context, loanID string) ([]*model.Payment, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM landledger.payments
		WHERE loan_id = $1
		ORDER BY due_date, sequence
	`, loanID)
	if err != nil {
		return nil, mapError(err, "failed to list payments")
	}
	payments, err := scanPayments(rows)
	if err != nil {
		return nil, mapError(err, "failed to read payments")
	}
	return payments, nil
}

// dateParam renders t as its UTC calendar date. due_date is a date column, and a
// timestamptz parameter would be compared in the server's TimeZone.
func dateParam(t time.Time) string {
	return model.DateOf(t).Format("2006-01-02")
}

// GetOverduePayments lists outstanding installments of active loans due strictly
// before today. An empty customerID matches every customer.
func (d Datasource) GetOverduePayments(ctx context.Context, customerID string, today time.Time) ([]*model.Payment, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+prefixed("p.", paymentColumns)+`
		FROM landledger.payments p
		JOIN landledger.loans l ON l.loan_id = p.loan_id
		WHERE l.status = 'ACTIVE'
		  AND ($1 = '' OR l.customer_id = $1)
		  AND p.status IN ('UNPAID', 'PARTIAL')
		  AND p.due_date < $2::date
		ORDER BY p.due_date, p.loan_id, p.sequence
	`, customerID, dateParam(today))
	if err != nil {
		return nil, mapError(err, "failed to list overdue payments")
	}
	payments, err := scanPayments(rows)
	if err != nil {
		return nil, mapError(err, "failed to read payments")
	}
	return payments, nil
}

// GetUpcomingPayments lists the nearest outstanding installments due today or later.
func (d Datasource) GetUpcomingPayments(ctx context.Context, customerID string, today time.Time, limit int) ([]*model.Payment, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+prefixed("p.", paymentColumns)+`
		FROM landledger.payments p
		JOIN landledger.loans l ON l.loan_id = p.loan_id
		WHERE l.status = 'ACTIVE'
		  AND ($1 = '' OR l.customer_id = $1)
		  AND p.status IN ('UNPAID', 'PARTIAL')
		  AND p.due_date >= $2::date
		ORDER BY p.due_date, p.loan_id, p.sequence
		LIMIT $3
	`, customerID, dateParam(today), limit)
	if err != nil {
		return nil, mapError(err, "failed to list upcoming payments")
	}
	payments, err := scanPayments(rows)
	if err != nil {
		return nil, mapError(err, "failed to read payments")
	}
	return payments, nil
}
