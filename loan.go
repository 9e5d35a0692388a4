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

	"github.com/shopspring/decimal"
	"github.com/wacul/ptr"
	"go.opentelemetry.io/otel/attribute"

	"github.com/landledger/landledger/database"
	"github.com/landledger/landledger/model"
)

const (
	maxTermMonths        = 600
	defaultUpcomingLimit = 5
	maxUpcomingLimit     = 100
)

var maxInterestRate = decimal.NewFromInt(100)

func validateApplication(app model.LoanApplication) error {
	if strings.TrimSpace(app.CustomerID) == "" {
		return validationError("customer id is required")
	}
	if err := validateAmount(app.RequestedAmount); err != nil {
		return err
	}
	if app.InterestRate.IsNegative() || app.InterestRate.GreaterThan(maxInterestRate) {
		return validationError("interest rate must be between 0 and 100 percent")
	}
	if !app.InterestRate.Equal(app.InterestRate.Round(4)) {
		return validationError("interest rate must have at most 4 decimal places")
	}
	if app.TermMonths < 1 || app.TermMonths > maxTermMonths {
		return validationError("term must be between 1 and %d months", maxTermMonths)
	}
	if !app.RepaymentPlan.Valid() {
		return validationError("unknown repayment plan %q", app.RepaymentPlan)
	}
	if app.RepaymentPlan == model.PlanInterestOnly && !app.InterestRate.IsPositive() {
		return validationError("interest-only loans require a positive interest rate")
	}
	return nil
}

// CreateLoanApplication records a PENDING loan. No money moves until approval.
func (l *LandLedger) CreateLoanApplication(ctx context.Context, app model.LoanApplication, actor model.Actor) (model.Loan, error) {
	ctx, span := tracer.Start(ctx, "loan.create")
	defer span.End()

	if app.RepaymentPlan == "" {
		app.RepaymentPlan = model.PlanAmortizing
	}
	if err := validateApplication(app); err != nil {
		return model.Loan{}, err
	}
	if err := validateActor(actor); err != nil {
		return model.Loan{}, err
	}

	now := l.now()
	loan, err := l.datasource.CreateLoan(ctx, model.Loan{
		LoanID:          model.GenerateUUIDWithSuffix("loan"),
		CustomerID:      strings.TrimSpace(app.CustomerID),
		RequestedAmount: app.RequestedAmount,
		ApprovedAmount:  decimal.Zero,
		InterestRate:    app.InterestRate,
		TermMonths:      app.TermMonths,
		RepaymentPlan:   app.RepaymentPlan,
		Status:          model.LoanPending,
		Valuation:       app.Valuation,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		span.RecordError(err)
		return model.Loan{}, err
	}
	span.SetAttributes(attribute.String("loan.id", loan.LoanID))
	return loan, nil
}

func (l *LandLedger) GetLoan(ctx context.Context, id string) (*model.Loan, error) {
	return l.datasource.GetLoanByID(ctx, id)
}

func (l *LandLedger) ListLoans(ctx context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	switch filter.Status {
	case "", model.LoanPending, model.LoanActive, model.LoanCompleted, model.LoanRejected:
	default:
		return nil, validationError("unknown loan status %q", filter.Status)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, validationError("limit and offset must not be negative")
	}
	return l.datasource.GetAllLoans(ctx, filter)
}

// GetLoanPayments lists the installment rows of a loan in due date order.
func (l *LandLedger) GetLoanPayments(ctx context.Context, loanID string) ([]*model.Payment, error) {
	if _, err := l.datasource.GetLoanByID(ctx, loanID); err != nil {
		return nil, err
	}
	return l.datasource.GetPaymentsByLoan(ctx, loanID)
}

// ApproveLoan activates a PENDING loan. The principal is withdrawn from the
// funding account and the schedule written in the same unit, so a funding
// account that cannot cover the principal leaves the loan PENDING and untouched.
// approvedAmount may lower the requested amount; nil approves it in full.
func (l *LandLedger) ApproveLoan(ctx context.Context, loanID, fundingAccountID string, approvedAmount *decimal.Decimal, actor model.Actor) (*model.LoanApproval, error) {
	ctx, span := tracer.Start(ctx, "loan.approve")
	defer span.End()
	span.SetAttributes(attribute.String("loan.id", loanID), attribute.String("account.id", fundingAccountID))

	if err := validateActor(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(fundingAccountID) == "" {
		return nil, validationError("funding account is required")
	}
	if approvedAmount != nil {
		if err := validateAmount(*approvedAmount); err != nil {
			return nil, err
		}
	}

	unlock, err := l.lockLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	approval := &model.LoanApproval{}
	err = l.withTx(ctx, "loan.approve", func(ctx context.Context, tx database.Tx) error {
		loan, err := tx.LockLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != model.LoanPending {
			return invalidOperation("loan %s is %s, only PENDING loans can be approved", loanID, loan.Status)
		}

		principal := loan.RequestedAmount
		if approvedAmount != nil {
			if approvedAmount.GreaterThan(loan.RequestedAmount) {
				return validationError("approved amount %s exceeds the requested amount %s",
					approvedAmount.StringFixed(model.MoneyPlaces), loan.RequestedAmount.StringFixed(model.MoneyPlaces))
			}
			principal = *approvedAmount
		}

		now := l.now()
		schedule, err := model.GenerateSchedule(loan.LoanID, principal, loan.InterestRate, loan.TermMonths, loan.RepaymentPlan, now)
		if err != nil {
			return validationError("%s", err.Error())
		}
		for _, p := range schedule {
			p.CreatedAt = now
			p.UpdatedAt = now
		}

		funding, err := lockAccount(ctx, tx, fundingAccountID)
		if err != nil {
			return err
		}
		disbursement, err := l.applyEntry(ctx, tx, funding, movement{
			kind:      model.EntryWithdraw,
			purpose:   model.PurposeLoanDisbursement,
			amount:    principal,
			note:      "Loan disbursement " + loan.LoanID,
			actor:     actor,
			reference: loan.LoanID,
		})
		if err != nil {
			return err
		}

		if err := tx.InsertPayments(ctx, schedule); err != nil {
			return err
		}

		loan.Status = model.LoanActive
		loan.ApprovedAmount = principal
		loan.FundingAccountID = fundingAccountID
		loan.ApprovedBy = actor.ID
		loan.ApprovedAt = ptr.Time(now)
		loan.UpdatedAt = now
		if err := tx.UpdateLoan(ctx, loan); err != nil {
			return err
		}

		approval.Loan = loan
		approval.Schedule = schedule
		approval.Disbursement = disbursement
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	l.afterCommit(ctx, model.NewEvent(model.EventLoanApproved, actor, approval))
	return approval, nil
}

// RejectLoan closes a PENDING application with the reviewer's reason.
func (l *LandLedger) RejectLoan(ctx context.Context, loanID, reviewNotes string, actor model.Actor) (*model.Loan, error) {
	ctx, span := tracer.Start(ctx, "loan.reject")
	defer span.End()
	span.SetAttributes(attribute.String("loan.id", loanID))

	reviewNotes = strings.TrimSpace(reviewNotes)
	if reviewNotes == "" {
		return nil, validationError("a rejection reason is required")
	}
	if err := validateActor(actor); err != nil {
		return nil, err
	}

	unlock, err := l.lockLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var rejected *model.Loan
	err = l.withTx(ctx, "loan.reject", func(ctx context.Context, tx database.Tx) error {
		loan, err := tx.LockLoan(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != model.LoanPending {
			return invalidOperation("loan %s is %s, only PENDING loans can be rejected", loanID, loan.Status)
		}
		now := l.now()
		loan.Status = model.LoanRejected
		loan.ReviewNotes = reviewNotes
		loan.RejectedBy = actor.ID
		loan.RejectedAt = ptr.Time(now)
		loan.UpdatedAt = now
		rejected = loan
		return tx.UpdateLoan(ctx, loan)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	l.afterCommit(ctx, model.NewEvent(model.EventLoanRejected, actor, rejected))
	return rejected, nil
}

// GetOverduePayments lists unpaid installments of active loans whose due date is
// strictly before today. An empty customerID covers every customer.
func (l *LandLedger) GetOverduePayments(ctx context.Context, customerID string) ([]*model.Payment, error) {
	return l.datasource.GetOverduePayments(ctx, strings.TrimSpace(customerID), l.now())
}

// GetUpcomingPayments lists the nearest limit unpaid installments due today or later.
func (l *LandLedger) GetUpcomingPayments(ctx context.Context, customerID string, limit int) ([]*model.Payment, error) {
	if limit < 0 {
		return nil, validationError("limit must not be negative")
	}
	if limit == 0 {
		limit = defaultUpcomingLimit
	}
	if limit > maxUpcomingLimit {
		limit = maxUpcomingLimit
	}
	return l.datasource.GetUpcomingPayments(ctx, strings.TrimSpace(customerID), l.now(), limit)
}

// VerifyPayment sets the audit flag on a paid installment. Nothing else about
// the row changes; corrections are made with compensating entries.
func (l *LandLedger) VerifyPayment(ctx context.Context, paymentID string, actor model.Actor) (*model.Payment, error) {
	ctx, span := tracer.Start(ctx, "payment.verify")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	if err := validateActor(actor); err != nil {
		return nil, err
	}

	current, err := l.datasource.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	unlock, err := l.lockLoan(ctx, current.LoanID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var verified *model.Payment
	err = l.withTx(ctx, "payment.verify", func(ctx context.Context, tx database.Tx) error {
		if _, err := tx.LockLoan(ctx, current.LoanID); err != nil {
			return err
		}
		p, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Verified {
			return invalidOperation("payment %s is already verified", paymentID)
		}
		if !p.PaidAmount.IsPositive() {
			return invalidOperation("payment %s has no recorded payment to verify", paymentID)
		}
		now := l.now()
		p.Verified = true
		p.VerifiedBy = actor.ID
		p.VerifiedAt = ptr.Time(now)
		p.UpdatedAt = now
		verified = p
		return tx.UpdatePayment(ctx, p)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	l.afterCommit(ctx, model.NewEvent(model.EventPaymentVerified, actor, verified))
	return verified, nil
}
