package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/landledger/landledger/api/middleware"
	model2 "github.com/landledger/landledger/api/model"
	"github.com/landledger/landledger/model"
)

func (a Api) CreateLoan(c *gin.Context) {
	var body model2.CreateLoan
	if !bindJSON(c, &body) {
		return
	}
	if err := body.ValidateCreateLoan(); err != nil {
		badRequest(c, err)
		return
	}

	loan, err := a.landledger.CreateLoanApplication(c.Request.Context(), body.ToLoanApplication(), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, loan)
}

func (a Api) GetLoan(c *gin.Context) {
	loan, err := a.landledger.GetLoan(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, loan)
}

func (a Api) GetAllLoans(c *gin.Context) {
	limit, offset, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}

	loans, err := a.landledger.ListLoans(c.Request.Context(), model.LoanFilter{
		CustomerID: c.Query("customer_id"),
		Status:     model.LoanStatus(c.Query("status")),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, loans)
}

func (a Api) ApproveLoan(c *gin.Context) {
	var body model2.ApproveLoan
	if !bindJSON(c, &body) {
		return
	}
	if err := body.ValidateApproveLoan(); err != nil {
		badRequest(c, err)
		return
	}

	approval, err := a.landledger.ApproveLoan(c.Request.Context(), c.Param("id"), body.FundingAccountID,
		body.ApprovedAmount, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, approval)
}

func (a Api) RejectLoan(c *gin.Context) {
	var body model2.RejectLoan
	if !bindJSON(c, &body) {
		return
	}
	if err := body.ValidateRejectLoan(); err != nil {
		badRequest(c, err)
		return
	}

	loan, err := a.landledger.RejectLoan(c.Request.Context(), c.Param("id"), body.ReviewNotes, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, loan)
}

func (a Api) GetLoanPayments(c *gin.Context) {
	payments, err := a.landledger.GetLoanPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, payments)
}

// PayInstallment applies an amount to the loan's outstanding installments, or
// settles the loan when close_out is set.
func (a Api) PayInstallment(c *gin.Context) {
	var body model2.PayInstallment
	if !bindJSON(c, &body) {
		return
	}
	if err := body.ValidatePayInstallment(); err != nil {
		badRequest(c, err)
		return
	}

	result, err := a.landledger.PayInstallment(c.Request.Context(), c.Param("id"), body.Amount, body.CloseOut, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}

func (a Api) CloseLoan(c *gin.Context) {
	result, err := a.landledger.CloseLoan(c.Request.Context(), c.Param("id"), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}

func (a Api) GetPayoffQuote(c *gin.Context) {
	quote, err := a.landledger.QuotePayoff(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, quote)
}

func (a Api) GetOverduePayments(c *gin.Context) {
	payments, err := a.landledger.GetOverduePayments(c.Request.Context(), c.Query("customer_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, payments)
}

func (a Api) GetUpcomingPayments(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		respondError(c, err)
		return
	}

	payments, err := a.landledger.GetUpcomingPayments(c.Request.Context(), c.Query("customer_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, payments)
}

func (a Api) VerifyPayment(c *gin.Context) {
	payment, err := a.landledger.VerifyPayment(c.Request.Context(), c.Param("id"), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, payment)
}
