package model

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/landledger/landledger/model"
)

type CreateAccount struct {
	Name string `json:"name"`
}

type UpdateAccount struct {
	Name string `json:"name"`
}

// Movement is the body of a deposit or a withdrawal.
type Movement struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

type CreateTransfer struct {
	SourceAccountID      string          `json:"source_account_id"`
	DestinationAccountID string          `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	Note                 string          `json:"note"`
}

type CreateLoan struct {
	CustomerID      string                 `json:"customer_id"`
	RequestedAmount decimal.Decimal        `json:"requested_amount"`
	InterestRate    decimal.Decimal        `json:"interest_rate"`
	TermMonths      int                    `json:"term_months"`
	RepaymentPlan   model.RepaymentPlan    `json:"repayment_plan"`
	Valuation       map[string]interface{} `json:"valuation"`
}

func (l *CreateLoan) ToLoanApplication() model.LoanApplication {
	return model.LoanApplication{
		CustomerID:      strings.TrimSpace(l.CustomerID),
		RequestedAmount: l.RequestedAmount,
		InterestRate:    l.InterestRate,
		TermMonths:      l.TermMonths,
		RepaymentPlan:   l.RepaymentPlan,
		Valuation:       l.Valuation,
	}
}

type ApproveLoan struct {
	FundingAccountID string           `json:"funding_account_id"`
	ApprovedAmount   *decimal.Decimal `json:"approved_amount"`
}

type RejectLoan struct {
	ReviewNotes string `json:"review_notes"`
}

type PayInstallment struct {
	Amount   decimal.Decimal `json:"amount"`
	CloseOut bool            `json:"close_out"`
}

type DocumentNumber struct {
	Type   string `json:"type"`
	Period string `json:"period"`
}

type RegisterIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}
