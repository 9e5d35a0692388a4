package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/landledger/landledger/model"
)

func (a Api) GetFinancialSummary(c *gin.Context) {
	summary, err := a.landledger.GetFinancialSummary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, summary)
}

// GetMonthlyDetails answers GET /reports/monthly?year=2024&month=3&kind=deposits.
func (a Api) GetMonthlyDetails(c *gin.Context) {
	year, err := queryInt(c, "year")
	if err != nil {
		respondError(c, err)
		return
	}
	month, err := queryInt(c, "month")
	if err != nil {
		respondError(c, err)
		return
	}

	details, err := a.landledger.GetMonthlyDetails(c.Request.Context(), year, month, model.MonthlyKind(c.Query("kind")))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, details)
}
