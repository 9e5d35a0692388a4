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

package landledger

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/wacul/ptr"

	"github.com/landledger/landledger/database"
	"github.com/landledger/landledger/model"
)

const maxAccountNameLength = 100

func normalizeAccountName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationError("account name is required")
	}
	if utf8.RuneCountInString(name) > maxAccountNameLength {
		return "", validationError("account name must be at most %d characters", maxAccountNameLength)
	}
	return name, nil
}

// CreateAccount opens an ACTIVE account with a zero balance. Opening balances
// are recorded as deposits so the balance always matches the log.
func (l *LandLedger) CreateAccount(ctx context.Context, name string, actor model.Actor) (model.Account, error) {
	ctx, span := tracer.Start(ctx, "account.create")
	defer span.End()

	name, err := normalizeAccountName(name)
	if err != nil {
		return model.Account{}, err
	}
	if err := validateActor(actor); err != nil {
		return model.Account{}, err
	}

	now := l.now()
	account, err := l.datasource.CreateAccount(ctx, model.Account{
		AccountID: model.GenerateUUIDWithSuffix("acc"),
		Name:      name,
		Balance:   decimal.Zero,
		Status:    model.AccountActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		span.RecordError(err)
		return model.Account{}, err
	}
	l.afterCommit(ctx)
	return account, nil
}

func (l *LandLedger) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	return l.datasource.GetAccountByID(ctx, id)
}

func (l *LandLedger) ListAccounts(ctx context.Context, filter model.AccountFilter) ([]model.Account, error) {
	if filter.Status != "" && filter.Status != model.AccountActive && filter.Status != model.AccountDeleted {
		return nil, validationError("unknown account status %q", filter.Status)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, validationError("limit and offset must not be negative")
	}
	return l.datasource.GetAllAccounts(ctx, filter)
}

// UpdateAccountName renames an active account. The name is the only mutable
// attribute; balances change through ledger entries only.
func (l *LandLedger) UpdateAccountName(ctx context.Context, id, name string, actor model.Actor) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "account.update")
	defer span.End()

	name, err := normalizeAccountName(name)
	if err != nil {
		return nil, err
	}
	if err := validateActor(actor); err != nil {
		return nil, err
	}

	var updated *model.Account
	err = l.withTx(ctx, "account.update", func(ctx context.Context, tx database.Tx) error {
		acc, err := lockAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		if acc.IsDeleted() {
			return invalidOperation("account %s is deleted", id)
		}
		acc.Name = name
		acc.UpdatedAt = l.now()
		updated = acc
		return tx.UpdateAccount(ctx, acc)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return updated, nil
}

// DeleteAccount soft-deletes an account. Only empty accounts that do not fund an
// active loan can be deleted, so no money disappears from the books with them.
func (l *LandLedger) DeleteAccount(ctx context.Context, id string, actor model.Actor) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "account.delete")
	defer span.End()

	if err := validateActor(actor); err != nil {
		return nil, err
	}

	var deleted *model.Account
	err := l.withTx(ctx, "account.delete", func(ctx context.Context, tx database.Tx) error {
		acc, err := lockAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		if acc.IsDeleted() {
			return invalidOperation("account %s is already deleted", id)
		}
		funded, err := tx.ActiveLoansFundedBy(ctx, id)
		if err != nil {
			return err
		}
		if len(funded) > 0 {
			return invalidOperation("account %s funds active loan %s", id, funded[0])
		}
		if !acc.Balance.IsZero() {
			return invalidOperation("account %s has a balance of %s, withdraw or transfer it first", id, acc.Balance.StringFixed(model.MoneyPlaces))
		}
		now := l.now()
		acc.Status = model.AccountDeleted
		acc.DeletedAt = ptr.Time(now)
		acc.UpdatedAt = now
		deleted = acc
		return tx.UpdateAccount(ctx, acc)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	l.afterCommit(ctx)
	return deleted, nil
}

// VerifyAccountIntegrity recomputes the balance from the log and compares it with
// the stored balance. It reads committed state only.
func (l *LandLedger) VerifyAccountIntegrity(ctx context.Context, id string) (*model.AccountAudit, error) {
	acc, err := l.datasource.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sum, count, err := l.datasource.SumLedgerEntries(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.AccountAudit{
		AccountID:     id,
		StoredBalance: acc.Balance,
		LogBalance:    sum,
		EntryCount:    count,
		Consistent:    acc.Balance.Equal(sum),
	}, nil
}
