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

	"github.com/shopspring/decimal"

	"github.com/landledger/landledger/model"
)

// CreateAccount inserts a new account. The caller assigns the ID and timestamps.
// A duplicate name surfaces as INVALID_OPERATION through the unique index.
func (d Datasource) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO landledger.accounts (account_id, name, balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, account.AccountID, account.Name, account.Balance, account.Status, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return account, mapError(err, "failed to create account")
	}
	return account, nil
}

// GetAccountByID retrieves an account by its ID. Deleted accounts are returned too.
func (d Datasource) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM landledger.accounts WHERE account_id = $1`, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Account", id)
		}
		return nil, mapError(err, "failed to retrieve account")
	}
	return account, nil
}

// GetAllAccounts lists accounts ordered by creation time.
// Parameters:
// - filter: optional status plus limit/offset pagination.
// Returns:
// - []model.Account: the page of accounts.
// - error: an APIError if the query fails.
func (d Datasource) GetAllAccounts(ctx context.Context, filter model.AccountFilter) ([]model.Account, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + accountColumns + ` FROM landledger.accounts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, account_id"
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "failed to list accounts")
	}
	defer rows.Close()

	accounts := []model.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, mapError(err, "failed to read account")
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "failed to list accounts")
	}
	return accounts, nil
}

// SumLedgerEntries returns the sum of an account's signed entry amounts and the entry count.
func (d Datasource) SumLedgerEntries(ctx context.Context, accountID string) (decimal.Decimal, int64, error) {
	var (
		sum   decimal.Decimal
		count int64
	)
	err := d.Conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM landledger.ledger_entries
		WHERE account_id = $1
	`, accountID).Scan(&sum, &count)
	if err != nil {
		return decimal.Zero, 0, mapError(err, "failed to sum ledger entries")
	}
	return sum, count, nil
}

// paginate appends LIMIT/OFFSET placeholders. A zero limit means no limit.
func paginate(query string, args []interface{}, limit, offset int) (string, []interface{}) {
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}
