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
	"encoding/json"
	"errors"
	"sort"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/landledger/landledger/model"
)

// RunInTx begins a transaction at the configured isolation level, hands the
// locking primitives to fn and commits when fn succeeds. Any error rolls the
// whole unit back.
func (d Datasource) RunInTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := d.Conn.BeginTx(ctx, &sql.TxOptions{Isolation: d.Isolation})
	if err != nil {
		return mapError(err, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&pgTx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logrus.WithError(rbErr).Warn("failed to roll back transaction")
		}
		return mapError(err, "transaction aborted")
	}

	if err := sqlTx.Commit(); err != nil {
		return mapError(err, "failed to commit transaction")
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

// sortedUnique returns ids deduplicated in ascending order, the global lock order.
func sortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LockAccounts takes FOR UPDATE locks on every id in ascending id order. ORDER BY
// makes Postgres acquire the row locks in the order the rows are returned.
func (t *pgTx) LockAccounts(ctx context.Context, ids ...string) (map[string]*model.Account, error) {
	ordered := sortedUnique(ids)
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM landledger.accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE
	`, pq.Array(ordered))
	if err != nil {
		return nil, mapError(err, "failed to lock accounts")
	}
	defer rows.Close()

	locked := make(map[string]*model.Account, len(ordered))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, mapError(err, "failed to read account")
		}
		locked[acc.AccountID] = acc
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "failed to lock accounts")
	}

	for _, id := range ordered {
		if _, ok := locked[id]; !ok {
			return nil, notFound("Account", id)
		}
	}
	return locked, nil
}

func (t *pgTx) UpdateAccount(ctx context.Context, account *model.Account) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE landledger.accounts
		SET name = $2, balance = $3, status = $4, updated_at = $5, deleted_at = $6
		WHERE account_id = $1
	`, account.AccountID, account.Name, account.Balance, account.Status, account.UpdatedAt, account.DeletedAt)
	return mapError(err, "failed to update account")
}

func (t *pgTx) InsertLedgerEntry(ctx context.Context, entry *model.LedgerEntry) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO landledger.ledger_entries
			(account_id, kind, purpose, amount, balance_after, note, actor_id, actor_name,
			 counterpart_account_id, group_id, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING entry_id
	`, entry.AccountID, entry.Kind, entry.Purpose, entry.Amount, entry.BalanceAfter, entry.Note, entry.ActorID,
		entry.ActorName, nullString(entry.CounterpartAccountID), entry.GroupID, entry.Reference, entry.CreatedAt,
	).Scan(&entry.EntryID)
	return mapError(err, "failed to record ledger entry")
}

func (t *pgTx) LockLoan(ctx context.Context, id string) (*model.Loan, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM landledger.loans WHERE loan_id = $1 FOR UPDATE`, id)
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Loan", id)
		}
		return nil, mapError(err, "failed to lock loan")
	}
	return loan, nil
}

func (t *pgTx) UpdateLoan(ctx context.Context, loan *model.Loan) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE landledger.loans
		SET approved_amount = $2, funding_account_id = $3, status = $4, review_notes = $5,
			approved_by = $6, rejected_by = $7, closed_by = $8, updated_at = $9,
			approved_at = $10, rejected_at = $11, closed_at = $12
		WHERE loan_id = $1
	`, loan.LoanID, loan.ApprovedAmount, nullString(loan.FundingAccountID), loan.Status, loan.ReviewNotes,
		loan.ApprovedBy, loan.RejectedBy, loan.ClosedBy, loan.UpdatedAt,
		loan.ApprovedAt, loan.RejectedAt, loan.ClosedAt)
	return mapError(err, "failed to update loan")
}

func (t *pgTx) ActiveLoansFundedBy(ctx context.Context, accountID string) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT loan_id
		FROM landledger.loans
		WHERE funding_account_id = $1 AND status = $2
		ORDER BY loan_id
	`, accountID, model.LoanActive)
	if err != nil {
		return nil, mapError(err, "failed to read funded loans")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err, "failed to read funded loans")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "failed to read funded loans")
	}
	return ids, nil
}

func (t *pgTx) LockPayments(ctx context.Context, loanID string) ([]*model.Payment, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM landledger.payments
		WHERE loan_id = $1
		ORDER BY due_date, sequence
		FOR UPDATE
	`, loanID)
	if err != nil {
		return nil, mapError(err, "failed to lock payments")
	}
	payments, err := scanPayments(rows)
	if err != nil {
		return nil, mapError(err, "failed to read payments")
	}
	return payments, nil
}

func (t *pgTx) LockPayment(ctx context.Context, id string) (*model.Payment, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM landledger.payments WHERE payment_id = $1 FOR UPDATE`, id)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("Payment", id)
		}
		return nil, mapError(err, "failed to lock payment")
	}
	return p, nil
}

func (t *pgTx) InsertPayments(ctx context.Context, payments []*model.Payment) error {
	for _, p := range payments {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO landledger.payments
				(payment_id, loan_id, sequence, due_date, type, principal_due, interest_due, scheduled_amount,
				 paid_principal, paid_interest, paid_amount, status, payment_date, paid_by,
				 verified, verified_by, verified_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		`, p.PaymentID, p.LoanID, p.Sequence, p.DueDate, p.Type, p.PrincipalDue, p.InterestDue, p.ScheduledAmount,
			p.PaidPrincipal, p.PaidInterest, p.PaidAmount, p.Status, p.PaymentDate, p.PaidBy,
			p.Verified, p.VerifiedBy, p.VerifiedAt, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return mapError(err, "failed to record payment schedule")
		}
	}
	return nil
}

func (t *pgTx) UpdatePayment(ctx context.Context, p *model.Payment) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE landledger.payments
		SET paid_principal = $2, paid_interest = $3, paid_amount = $4, status = $5, payment_date = $6,
			paid_by = $7, verified = $8, verified_by = $9, verified_at = $10, updated_at = $11
		WHERE payment_id = $1
	`, p.PaymentID, p.PaidPrincipal, p.PaidInterest, p.PaidAmount, p.Status, p.PaymentDate,
		p.PaidBy, p.Verified, p.VerifiedBy, p.VerifiedAt, p.UpdatedAt)
	return mapError(err, "failed to update payment")
}

func (t *pgTx) NextSequenceValue(ctx context.Context, seqType, period string, capacity int64) (int64, bool, error) {
	var value int64
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO landledger.document_sequences (seq_type, period, last_value, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (seq_type, period) DO UPDATE
		SET last_value = landledger.document_sequences.last_value + 1, updated_at = NOW()
		WHERE landledger.document_sequences.last_value < $3
		RETURNING last_value
	`, seqType, period, capacity).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, mapError(err, "failed to advance sequence")
	}
	return value, true, nil
}

func (t *pgTx) ClaimIdentifier(ctx context.Context, seqType, identifier string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO landledger.issued_identifiers (seq_type, identifier)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, seqType, identifier)
	if err != nil {
		return false, mapError(err, "failed to claim identifier")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapError(err, "failed to claim identifier")
	}
	return n == 1, nil
}

func marshalValuation(v map[string]interface{}) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}
