package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	model2 "github.com/landledger/landledger/api/model"
)

func (a Api) NextDocumentNumber(c *gin.Context) {
	var body model2.DocumentNumber
	if !bindJSON(c, &body) {
		return
	}
	if err := body.ValidateDocumentNumber(); err != nil {
		badRequest(c, err)
		return
	}

	value, err := a.landledger.NextDocumentNumber(c.Request.Context(), body.Type, body.Period)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, value)
}

func (a Api) NextPhoneNumber(c *gin.Context) {
	value, err := a.landledger.NextPhoneNumber(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, value)
}

// RegisterIdentifier records an identifier issued outside the generator so it
// is never handed out again.
func (a Api) RegisterIdentifier(c *gin.Context) {
	var body model2.RegisterIdentifier
	if !bindJSON(c, &body) {
		return
	}
	if err := body.ValidateRegisterIdentifier(); err != nil {
		badRequest(c, err)
		return
	}

	if err := a.landledger.RegisterIssuedIdentifier(c.Request.Context(), body.Type, body.Identifier); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, body)
}
