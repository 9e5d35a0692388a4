package model

import "time"

const (
	EventAccountDeposit  = "account.deposit"
	EventAccountWithdraw = "account.withdraw"
	EventAccountTransfer = "account.transfer"
	EventLoanApproved    = "loan.approved"
	EventLoanRejected    = "loan.rejected"
	EventLoanPayment     = "loan.payment"
	EventLoanClosed      = "loan.closed"
	EventPaymentVerified = "payment.verified"
)

// Event is handed to the notification sink after a financial operation commits.
type Event struct {
	EventID    string      `json:"event_id"`
	Event      string      `json:"event"`
	Data       interface{} `json:"data"`
	Actor      Actor       `json:"actor"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func NewEvent(name string, actor Actor, data interface{}) Event {
	return Event{
		EventID:    GenerateUUIDWithSuffix("evt"),
		Event:      name,
		Data:       data,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
	}
}
