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
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/landledger/landledger/model"
)

// positiveAmount is the boundary check shared by every money field. Required
// does not understand decimal.Decimal, so zero and negative values are caught here.
var positiveAmount = validation.By(func(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok {
		if p, isPtr := value.(*decimal.Decimal); isPtr && p != nil {
			amount = *p
		} else if isPtr {
			return nil
		} else {
			return errors.New("must be a decimal amount")
		}
	}
	if !amount.IsPositive() {
		return errors.New("must be greater than zero")
	}
	if !model.HasMoneyPrecision(amount) {
		return errors.New("must have at most two decimal places")
	}
	return nil
})

func (a *CreateAccount) ValidateCreateAccount() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Name, validation.Required, validation.RuneLength(1, 100)),
	)
}

func (a *UpdateAccount) ValidateUpdateAccount() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Name, validation.Required, validation.RuneLength(1, 100)),
	)
}

func (m *Movement) ValidateMovement() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Amount, positiveAmount),
		validation.Field(&m.Note, validation.RuneLength(0, 500)),
	)
}

func (t *CreateTransfer) ValidateCreateTransfer() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.SourceAccountID, validation.Required),
		validation.Field(&t.DestinationAccountID, validation.Required,
			validation.NotIn(t.SourceAccountID).Error("must differ from the source account")),
		validation.Field(&t.Amount, positiveAmount),
		validation.Field(&t.Note, validation.RuneLength(0, 500)),
	)
}

func (l *CreateLoan) ValidateCreateLoan() error {
	return validation.ValidateStruct(l,
		validation.Field(&l.CustomerID, validation.Required),
		validation.Field(&l.RequestedAmount, positiveAmount),
		validation.Field(&l.TermMonths, validation.Required, validation.Min(1), validation.Max(600)),
		validation.Field(&l.RepaymentPlan, validation.In(model.PlanAmortizing, model.PlanInterestOnly)),
	)
}

func (a *ApproveLoan) ValidateApproveLoan() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.FundingAccountID, validation.Required),
		validation.Field(&a.ApprovedAmount, positiveAmount),
	)
}

func (r *RejectLoan) ValidateRejectLoan() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ReviewNotes, validation.Required),
	)
}

func (p *PayInstallment) ValidatePayInstallment() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Amount, positiveAmount),
	)
}

func (d *DocumentNumber) ValidateDocumentNumber() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Type, validation.Required),
		validation.Field(&d.Period, validation.Required),
	)
}

func (r *RegisterIdentifier) ValidateRegisterIdentifier() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Type, validation.Required),
		validation.Field(&r.Identifier, validation.Required),
	)
}
