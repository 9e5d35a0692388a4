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

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/landledger/landledger"
	"github.com/landledger/landledger/api/middleware"
	"github.com/landledger/landledger/config"
)

type Api struct {
	landledger *landledger.LandLedger
	router     *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	router.POST("/accounts", a.CreateAccount)
	router.GET("/accounts", a.GetAllAccounts)
	router.GET("/accounts/:id", a.GetAccount)
	router.PUT("/accounts/:id", a.UpdateAccount)
	router.DELETE("/accounts/:id", a.DeleteAccount)
	router.GET("/accounts/:id/audit", a.AuditAccount)
	router.POST("/accounts/:id/deposit", a.Deposit)
	router.POST("/accounts/:id/withdraw", a.Withdraw)

	router.POST("/transfers", a.Transfer)
	router.GET("/logs", a.GetLogs)

	router.POST("/loans", a.CreateLoan)
	router.GET("/loans", a.GetAllLoans)
	router.GET("/loans/:id", a.GetLoan)
	router.POST("/loans/:id/approve", a.ApproveLoan)
	router.POST("/loans/:id/reject", a.RejectLoan)
	router.GET("/loans/:id/payments", a.GetLoanPayments)
	router.POST("/loans/:id/payments", a.PayInstallment)
	router.POST("/loans/:id/close", a.CloseLoan)
	router.GET("/loans/:id/payoff", a.GetPayoffQuote)

	router.GET("/payments/overdue", a.GetOverduePayments)
	router.GET("/payments/upcoming", a.GetUpcomingPayments)
	router.POST("/payments/:id/verify", a.VerifyPayment)

	router.POST("/sequences/documents", a.NextDocumentNumber)
	router.POST("/sequences/phone-numbers", a.NextPhoneNumber)
	router.POST("/sequences/identifiers", a.RegisterIdentifier)

	router.GET("/reports/summary", a.GetFinancialSummary)
	router.GET("/reports/monthly", a.GetMonthlyDetails)

	return a.router
}

// NewAPI builds the HTTP surface over l. Configuration must be loaded first.
func NewAPI(l *landledger.LandLedger) (*Api, error) {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	r := gin.Default()
	r.Use(otelgin.Middleware("landledger"))
	r.Use(middleware.RateLimitMiddleware(conf))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})
	r.GET("/metrics", gin.WrapH(l.Metrics().Handler()))

	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}
	r.Use(middleware.ActorMiddleware())

	return &Api{landledger: l, router: r}, nil
}
