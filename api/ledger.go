package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/landledger/landledger/api/middleware"
	model2 "github.com/landledger/landledger/api/model"
	"github.com/landledger/landledger/model"
)

func (a Api) Deposit(c *gin.Context) {
	var body model2.Movement
	if !bindJSON(c, &body) {
		return
	}
	if err := body.ValidateMovement(); err != nil {
		badRequest(c, err)
		return
	}

	entry, err := a.landledger.Deposit(c.Request.Context(), c.Param("id"), body.Amount, body.Note, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, entry)
}

func (a Api) Withdraw(c *gin.Context) {
	var body model2.Movement
	if !bindJSON(c, &body) {
		return
	}
	if err := body.ValidateMovement(); err != nil {
		badRequest(c, err)
		return
	}

	entry, err := a.landledger.Withdraw(c.Request.Context(), c.Param("id"), body.Amount, body.Note, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, entry)
}

func (a Api) Transfer(c *gin.Context) {
	var body model2.CreateTransfer
	if !bindJSON(c, &body) {
		return
	}
	if err := body.ValidateCreateTransfer(); err != nil {
		badRequest(c, err)
		return
	}

	transfer, err := a.landledger.Transfer(c.Request.Context(), body.SourceAccountID, body.DestinationAccountID,
		body.Amount, body.Note, middleware.ActorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, transfer)
}

// GetLogs lists ledger entries newest first. Supported query parameters are
// account_id, actor_id, kind, from, to (RFC3339, to exclusive), limit and offset.
func (a Api) GetLogs(c *gin.Context) {
	limit, offset, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}
	from, err := queryTime(c, "from")
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := queryTime(c, "to")
	if err != nil {
		respondError(c, err)
		return
	}

	entries, err := a.landledger.GetLogs(c.Request.Context(), model.LogFilter{
		AccountID: c.Query("account_id"),
		ActorID:   c.Query("actor_id"),
		Kind:      model.EntryKind(c.Query("kind")),
		From:      from,
		To:        to,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, entries)
}
