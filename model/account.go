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

type AccountStatus string

const (
	AccountActive  AccountStatus = "ACTIVE"
	AccountDeleted AccountStatus = "DELETED"
)

// Account is a named cash pool ("land account"). Its balance only changes through
// ledger entries and always equals the sum of their signed amounts.
type Account struct {
	AccountID string          `json:"account_id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Status    AccountStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
}

func (a *Account) IsDeleted() bool {
	return a.Status == AccountDeleted
}

type AccountFilter struct {
	Status AccountStatus
	Limit  int
	Offset int
}

// AccountAudit is the result of recomputing an account balance from its log.
type AccountAudit struct {
	AccountID     string          `json:"account_id"`
	StoredBalance decimal.Decimal `json:"stored_balance"`
	LogBalance    decimal.Decimal `json:"log_balance"`
	EntryCount    int64           `json:"entry_count"`
	Consistent    bool            `json:"consistent"`
}
