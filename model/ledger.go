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

type EntryKind string

const (
	EntryDeposit     EntryKind = "DEPOSIT"
	EntryWithdraw    EntryKind = "WITHDRAW"
	EntryTransferOut EntryKind = "TRANSFER_OUT"
	EntryTransferIn  EntryKind = "TRANSFER_IN"
)

func (k EntryKind) Valid() bool {
	switch k {
	case EntryDeposit, EntryWithdraw, EntryTransferOut, EntryTransferIn:
		return true
	}
	return false
}

// EntryPurpose tells manual cash movements apart from the ones made by the loan engine.
type EntryPurpose string

const (
	PurposeManual           EntryPurpose = "MANUAL"
	PurposeLoanDisbursement EntryPurpose = "LOAN_DISBURSEMENT"
	PurposeLoanRepayment    EntryPurpose = "LOAN_REPAYMENT"
)

// LedgerEntry is an immutable row of the append-only account log. Amount is signed:
// positive for DEPOSIT and TRANSFER_IN, negative for WITHDRAW and TRANSFER_OUT.
type LedgerEntry struct {
	EntryID              int64           `json:"entry_id"`
	AccountID            string          `json:"account_id"`
	Kind                 EntryKind       `json:"kind"`
	Purpose              EntryPurpose    `json:"purpose"`
	Amount               decimal.Decimal `json:"amount"`
	BalanceAfter         decimal.Decimal `json:"balance_after"`
	Note                 string          `json:"note,omitempty"`
	ActorID              string          `json:"actor_id"`
	ActorName            string          `json:"actor_name,omitempty"`
	CounterpartAccountID string          `json:"counterpart_account_id,omitempty"`
	GroupID              string          `json:"group_id"`
	Reference            string          `json:"reference,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// LogFilter selects ledger entries. Zero values mean "no filter".
type LogFilter struct {
	AccountID string
	ActorID   string
	Kind      EntryKind
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Matches applies the filter to a single entry. To is exclusive.
func (f LogFilter) Matches(e *LedgerEntry) bool {
	if f.AccountID != "" && e.AccountID != f.AccountID {
		return false
	}
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.From != nil && e.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !e.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}

// Transfer is the TRANSFER_OUT / TRANSFER_IN pair written by one transfer.
type Transfer struct {
	GroupID string       `json:"group_id"`
	Out     *LedgerEntry `json:"out"`
	In      *LedgerEntry `json:"in"`
}
