package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/landledger/landledger/api/middleware"
	model2 "github.com/landledger/landledger/api/model"
	"github.com/landledger/landledger/model"
)

func (a Api) CreateAccount(c *gin.Context) {
	var newAccount model2.CreateAccount
	if !bindJSON(c, &newAccount) {
		return
	}
	if err := newAccount.ValidateCreateAccount(); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := a.landledger.CreateAccount(c.Request.Context(), newAccount.Name, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, resp)
}

func (a Api) GetAccount(c *gin.Context) {
	account, err := a.landledger.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, account)
}

func (a Api) GetAllAccounts(c *gin.Context) {
	limit, offset, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}

	accounts, err := a.landledger.ListAccounts(c.Request.Context(), model.AccountFilter{
		Status: model.AccountStatus(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, accounts)
}

// UpdateAccount renames an account. The name is the only mutable attribute.
func (a Api) UpdateAccount(c *gin.Context) {
	var update model2.UpdateAccount
	if !bindJSON(c, &update) {
		return
	}
	if err := update.ValidateUpdateAccount(); err != nil {
		badRequest(c, err)
		return
	}

	account, err := a.landledger.UpdateAccountName(c.Request.Context(), c.Param("id"), update.Name, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, account)
}

func (a Api) DeleteAccount(c *gin.Context) {
	account, err := a.landledger.DeleteAccount(c.Request.Context(), c.Param("id"), middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, account)
}

func (a Api) AuditAccount(c *gin.Context) {
	audit, err := a.landledger.VerifyAccountIntegrity(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, audit)
}
