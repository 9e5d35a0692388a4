package landledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wacul/ptr"
	"go.opentelemetry.io/otel/attribute"

	"github.com/landledger/landledger/database"
	"github.com/landledger/landledger/internal/apierror"
	"github.com/landledger/landledger/model"
)

func lockActiveLoan(ctx context.Context, tx database.Tx, loanID string) (*model.Loan, []*model.Payment, error) {
	loan, err := tx.LockLoan(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}
	if loan.Status != model.LoanActive {
		return nil, nil, invalidOperation("loan %s is %s, only ACTIVE loans accept payments", loanID, loan.Status)
	}
	rows, err := tx.LockPayments(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}
	return loan, rows, nil
}

func (l *LandLedger) depositRepayment(ctx context.Context, tx database.Tx, loan *model.Loan, amount decimal.Decimal, actor model.Actor) (*model.LedgerEntry, error) {
	funding, err := lockAccount(ctx, tx, loan.FundingAccountID)
	if err != nil {
		return nil, err
	}
	return l.applyEntry(ctx, tx, funding, movement{
		kind:      model.EntryDeposit,
		purpose:   model.PurposeLoanRepayment,
		amount:    amount,
		note:      "Loan repayment " + loan.LoanID,
		actor:     actor,
		reference: loan.LoanID,
	})
}

// allocateInstallments applies amount to rows and fails when any of it is left
// over. Callers check the obligation first, so a remainder means the rows and
// the obligation disagree and the unit must not commit.
func allocateInstallments(rows []*model.Payment, amount decimal.Decimal, at time.Time, actorID string) ([]model.Allocation, error) {
	allocations, unapplied := model.ApplyPayment(rows, amount, at, actorID)
	if !unapplied.IsZero() {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "payment could not be fully allocated", map[string]string{
			"amount":    amount.StringFixed(model.MoneyPlaces),
			"unapplied": unapplied.StringFixed(model.MoneyPlaces),
		})
	}
	return allocations, nil
}

// PayInstallment applies amount to the loan's outstanding installments, earliest
// due date first and interest before principal, and deposits it into the
// funding account. Paying more than the outstanding obligation is rejected.
// With closeOut set the payment settles the loan early and amount must equal the
// current payoff figure.
func (l *LandLedger) PayInstallment(ctx context.Context, loanID string, amount decimal.Decimal, closeOut bool, actor model.Actor) (*model.PaymentResult, error) {
	ctx, span := tracer.Start(ctx, "loan.pay")
	defer span.End()
	span.SetAttributes(
		attribute.String("loan.id", loanID),
		attribute.String("amount", amount.String()),
		attribute.Bool("close_out", closeOut),
	)

	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if err := validateActor(actor); err != nil {
		return nil, err
	}

	unlock, err := l.lockLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *model.PaymentResult
	err = l.withTx(ctx, "loan.pay", func(ctx context.Context, tx database.Tx) error {
		loan, rows, err := lockActiveLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}

		if closeOut {
			quote := model.QuotePayoff(loan, rows, l.now())
			switch {
			case amount.LessThan(quote.Payoff):
				return validationError("close-out requires the full payoff of %s", quote.Payoff.StringFixed(model.MoneyPlaces))
			case amount.GreaterThan(quote.Payoff):
				return overpayment(amount, quote.Payoff)
			}
			result, err = l.settle(ctx, tx, loan, rows, quote, actor)
			return err
		}

		obligation := model.OutstandingObligation(rows)
		if amount.GreaterThan(obligation) {
			return overpayment(amount, obligation)
		}

		now := l.now()
		allocations, err := allocateInstallments(rows, amount, now, actor.ID)
		if err != nil {
			return err
		}
		touched := make([]*model.Payment, 0, len(allocations))
		byID := make(map[string]*model.Payment, len(rows))
		for _, p := range rows {
			byID[p.PaymentID] = p
		}
		for _, a := range allocations {
			p := byID[a.PaymentID]
			if err := tx.UpdatePayment(ctx, p); err != nil {
				return err
			}
			touched = append(touched, p)
		}

		entry, err := l.depositRepayment(ctx, tx, loan, amount, actor)
		if err != nil {
			return err
		}

		remaining := model.OutstandingObligation(rows)
		if !remaining.IsPositive() {
			loan.Status = model.LoanCompleted
			loan.ClosedAt = ptr.Time(now)
			loan.ClosedBy = actor.ID
			loan.UpdatedAt = now
			if err := tx.UpdateLoan(ctx, loan); err != nil {
				return err
			}
		}

		result = &model.PaymentResult{
			LoanID:      loan.LoanID,
			Amount:      amount,
			Allocations: allocations,
			Payments:    touched,
			LoanStatus:  loan.Status,
			Remaining:   remaining,
			EntryID:     entry.EntryID,
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	events := []model.Event{model.NewEvent(model.EventLoanPayment, actor, result)}
	if result.LoanStatus == model.LoanCompleted {
		events = append(events, model.NewEvent(model.EventLoanClosed, actor, result))
	}
	l.afterCommit(ctx, events...)
	return result, nil
}

// CloseLoan pays an ACTIVE loan off early. The payoff is the remaining principal
// plus simple interest accrued since the last payment, or since approval when
// nothing has been paid yet. It is recorded as one CLOSE_OUT installment and
// every outstanding installment is marked SETTLED.
func (l *LandLedger) CloseLoan(ctx context.Context, loanID string, actor model.Actor) (*model.PaymentResult, error) {
	ctx, span := tracer.Start(ctx, "loan.close")
	defer span.End()
	span.SetAttributes(attribute.String("loan.id", loanID))

	if err := validateActor(actor); err != nil {
		return nil, err
	}

	unlock, err := l.lockLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *model.PaymentResult
	err = l.withTx(ctx, "loan.close", func(ctx context.Context, tx database.Tx) error {
		loan, rows, err := lockActiveLoan(ctx, tx, loanID)
		if err != nil {
			return err
		}
		result, err = l.settle(ctx, tx, loan, rows, model.QuotePayoff(loan, rows, l.now()), actor)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	l.afterCommit(ctx, model.NewEvent(model.EventLoanPayment, actor, result), model.NewEvent(model.EventLoanClosed, actor, result))
	return result, nil
}

// settle records the close-out of a locked loan inside tx.
func (l *LandLedger) settle(ctx context.Context, tx database.Tx, loan *model.Loan, rows []*model.Payment, quote model.PayoffQuote, actor model.Actor) (*model.PaymentResult, error) {
	if !quote.RemainingPrincipal.IsPositive() {
		return nil, invalidOperation("loan %s has no remaining principal to close out", loan.LoanID)
	}

	now := l.now()
	lastSequence := 0
	for _, p := range rows {
		if p.Sequence > lastSequence {
			lastSequence = p.Sequence
		}
	}

	closing := &model.Payment{
		PaymentID:       model.GenerateUUIDWithSuffix("pay"),
		LoanID:          loan.LoanID,
		Sequence:        lastSequence + 1,
		DueDate:         model.DateOf(now),
		Type:            model.PaymentCloseOut,
		PrincipalDue:    quote.RemainingPrincipal,
		InterestDue:     quote.AccruedInterest,
		ScheduledAmount: quote.Payoff,
		PaidPrincipal:   quote.RemainingPrincipal,
		PaidInterest:    quote.AccruedInterest,
		PaidAmount:      quote.Payoff,
		Status:          model.PaymentPaid,
		PaymentDate:     ptr.Time(now),
		PaidBy:          actor.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	touched := []*model.Payment{closing}
	for _, p := range rows {
		if !p.IsOutstanding() {
			continue
		}
		p.Status = model.PaymentSettled
		p.UpdatedAt = now
		if err := tx.UpdatePayment(ctx, p); err != nil {
			return nil, err
		}
		touched = append(touched, p)
	}
	if err := tx.InsertPayments(ctx, []*model.Payment{closing}); err != nil {
		return nil, err
	}

	entry, err := l.depositRepayment(ctx, tx, loan, quote.Payoff, actor)
	if err != nil {
		return nil, err
	}

	loan.Status = model.LoanCompleted
	loan.ClosedAt = ptr.Time(now)
	loan.ClosedBy = actor.ID
	loan.UpdatedAt = now
	if err := tx.UpdateLoan(ctx, loan); err != nil {
		return nil, err
	}

	return &model.PaymentResult{
		LoanID: loan.LoanID,
		Amount: quote.Payoff,
		Allocations: []model.Allocation{{
			PaymentID: closing.PaymentID,
			Sequence:  closing.Sequence,
			Interest:  quote.AccruedInterest,
			Principal: quote.RemainingPrincipal,
		}},
		Payments:   touched,
		LoanStatus: loan.Status,
		Remaining:  decimal.Zero,
		EntryID:    entry.EntryID,
		Payoff:     &quote,
	}, nil
}

// QuotePayoff returns what CloseLoan would charge right now without moving money.
func (l *LandLedger) QuotePayoff(ctx context.Context, loanID string) (*model.PayoffQuote, error) {
	loan, err := l.datasource.GetLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != model.LoanActive {
		return nil, invalidOperation("loan %s is %s, only ACTIVE loans have a payoff", loanID, loan.Status)
	}
	rows, err := l.datasource.GetPaymentsByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	quote := model.QuotePayoff(loan, rows, l.now())
	return &quote, nil
}

func overpayment(amount, limit decimal.Decimal) error {
	return apierror.NewAPIError(apierror.ErrOverpaymentRejected, "payment exceeds the remaining obligation of "+limit.StringFixed(model.MoneyPlaces), map[string]string{
		"amount":  amount.StringFixed(model.MoneyPlaces),
		"maximum": limit.StringFixed(model.MoneyPlaces),
	})
}
