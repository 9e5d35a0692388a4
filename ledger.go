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

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/landledger/landledger/database"
	"github.com/landledger/landledger/internal/apierror"
	"github.com/landledger/landledger/model"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// movement describes one ledger entry to write. Amount is always positive; the
// sign comes from the entry kind.
type movement struct {
	kind        model.EntryKind
	purpose     model.EntryPurpose
	amount      decimal.Decimal
	note        string
	actor       model.Actor
	counterpart string
	groupID     string
	reference   string
}

func signedAmount(kind model.EntryKind, amount decimal.Decimal) decimal.Decimal {
	if kind == model.EntryWithdraw || kind == model.EntryTransferOut {
		return amount.Neg()
	}
	return amount
}

// applyEntry is the in-transaction primitive every balance change goes through.
// acc must already be locked by tx. The log row is written before the balance so
// both land in the same unit or neither does.
func (l *LandLedger) applyEntry(ctx context.Context, tx database.Tx, acc *model.Account, m movement) (*model.LedgerEntry, error) {
	if acc.IsDeleted() {
		return nil, invalidOperation("account %s is deleted", acc.AccountID)
	}

	signed := signedAmount(m.kind, m.amount)
	balance := acc.Balance.Add(signed)
	if balance.IsNegative() {
		return nil, apierror.NewAPIError(apierror.ErrInsufficientFunds, "insufficient funds in account "+acc.AccountID, map[string]string{
			"account_id": acc.AccountID,
			"balance":    acc.Balance.StringFixed(model.MoneyPlaces),
			"requested":  m.amount.StringFixed(model.MoneyPlaces),
		})
	}

	now := l.now()
	entry := &model.LedgerEntry{
		AccountID:            acc.AccountID,
		Kind:                 m.kind,
		Purpose:              m.purpose,
		Amount:               signed,
		BalanceAfter:         balance,
		Note:                 m.note,
		ActorID:              m.actor.ID,
		ActorName:            m.actor.Name,
		CounterpartAccountID: m.counterpart,
		GroupID:              m.groupID,
		Reference:            m.reference,
		CreatedAt:            now,
	}
	if entry.GroupID == "" {
		entry.GroupID = model.GenerateUUIDWithSuffix("grp")
	}
	if err := tx.InsertLedgerEntry(ctx, entry); err != nil {
		return nil, err
	}

	acc.Balance = balance
	acc.UpdatedAt = now
	if err := tx.UpdateAccount(ctx, acc); err != nil {
		return nil, err
	}
	return entry, nil
}

// lockAccount locks a single account inside tx.
func lockAccount(ctx context.Context, tx database.Tx, id string) (*model.Account, error) {
	locked, err := tx.LockAccounts(ctx, id)
	if err != nil {
		return nil, err
	}
	return locked[id], nil
}

func (l *LandLedger) move(ctx context.Context, operation, accountID string, m movement) (*model.LedgerEntry, error) {
	ctx, span := tracer.Start(ctx, operation)
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID), attribute.String("amount", m.amount.String()))

	if err := validateAmount(m.amount); err != nil {
		return nil, err
	}
	if err := validateActor(m.actor); err != nil {
		return nil, err
	}

	var entry *model.LedgerEntry
	err := l.withTx(ctx, operation, func(ctx context.Context, tx database.Tx) error {
		acc, err := lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		entry, err = l.applyEntry(ctx, tx, acc, m)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.AddEvent("Entry recorded", trace.WithAttributes(
		attribute.Int64("entry.id", entry.EntryID),
		attribute.String("balance.after", entry.BalanceAfter.String()),
	))
	return entry, nil
}

// Deposit adds amount to the account balance and records a DEPOSIT entry.
func (l *LandLedger) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, note string, actor model.Actor) (*model.LedgerEntry, error) {
	entry, err := l.move(ctx, "ledger.deposit", accountID, movement{
		kind:    model.EntryDeposit,
		purpose: model.PurposeManual,
		amount:  amount,
		note:    note,
		actor:   actor,
	})
	if err != nil {
		return nil, err
	}
	l.afterCommit(ctx, model.NewEvent(model.EventAccountDeposit, actor, entry))
	return entry, nil
}

// Withdraw removes amount from the account balance. The balance never goes
// below zero; a withdrawal larger than the balance fails with INSUFFICIENT_FUNDS.
func (l *LandLedger) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal, note string, actor model.Actor) (*model.LedgerEntry, error) {
	entry, err := l.move(ctx, "ledger.withdraw", accountID, movement{
		kind:    model.EntryWithdraw,
		purpose: model.PurposeManual,
		amount:  amount,
		note:    note,
		actor:   actor,
	})
	if err != nil {
		return nil, err
	}
	l.afterCommit(ctx, model.NewEvent(model.EventAccountWithdraw, actor, entry))
	return entry, nil
}

// Transfer moves amount between two accounts as one unit. Both accounts are
// locked in ascending id order, and both entries share a group id.
func (l *LandLedger) Transfer(ctx context.Context, sourceID, destinationID string, amount decimal.Decimal, note string, actor model.Actor) (*model.Transfer, error) {
	ctx, span := tracer.Start(ctx, "ledger.transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("account.source", sourceID),
		attribute.String("account.destination", destinationID),
		attribute.String("amount", amount.String()),
	)

	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateActor(actor); err != nil {
		return nil, err
	}
	if sourceID == "" || destinationID == "" {
		return nil, validationError("source and destination accounts are required")
	}
	if sourceID == destinationID {
		return nil, invalidOperation("cannot transfer from an account to itself")
	}

	transfer := &model.Transfer{GroupID: model.GenerateUUIDWithSuffix("grp")}
	err := l.withTx(ctx, "ledger.transfer", func(ctx context.Context, tx database.Tx) error {
		locked, err := tx.LockAccounts(ctx, sourceID, destinationID)
		if err != nil {
			return err
		}

		transfer.Out, err = l.applyEntry(ctx, tx, locked[sourceID], movement{
			kind:        model.EntryTransferOut,
			purpose:     model.PurposeManual,
			amount:      amount,
			note:        note,
			actor:       actor,
			counterpart: destinationID,
			groupID:     transfer.GroupID,
		})
		if err != nil {
			return err
		}

		transfer.In, err = l.applyEntry(ctx, tx, locked[destinationID], movement{
			kind:        model.EntryTransferIn,
			purpose:     model.PurposeManual,
			amount:      amount,
			note:        note,
			actor:       actor,
			counterpart: sourceID,
			groupID:     transfer.GroupID,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	l.afterCommit(ctx, model.NewEvent(model.EventAccountTransfer, actor, transfer))
	return transfer, nil
}

// GetLogs lists committed log entries newest first.
func (l *LandLedger) GetLogs(ctx context.Context, filter model.LogFilter) ([]model.LedgerEntry, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, validationError("unknown entry kind %q", filter.Kind)
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, validationError("from must be before to")
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, validationError("limit and offset must not be negative")
	}
	if filter.Limit == 0 {
		filter.Limit = defaultLogLimit
	}
	if filter.Limit > maxLogLimit {
		filter.Limit = maxLogLimit
	}
	return l.datasource.GetLedgerEntries(ctx, filter)
}

// BalanceOf returns the committed balance of an account, deleted or not.
func (l *LandLedger) BalanceOf(ctx context.Context, accountID string) (decimal.Decimal, error) {
	acc, err := l.datasource.GetAccountByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.Balance, nil
}
