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
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gin-gonic/gin"

	"github.com/landledger/landledger/config"
	"github.com/landledger/landledger/internal/apierror"
	"github.com/landledger/landledger/model"
)

const (
	SecretKeyHeader = "X-Landledger-Key"
	ActorIDHeader   = "X-Actor-ID"
	ActorNameHeader = "X-Actor-Name"

	actorContextKey = "landledger.actor"
)

func abort(c *gin.Context, status int, code apierror.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   gin.H{"kind": code, "message": message},
	})
}

// RateLimitMiddleware creates a middleware for rate limiting using Tollbooth
func RateLimitMiddleware(conf *config.Configuration) gin.HandlerFunc {
	if conf.RateLimit.RequestsPerSecond == nil || conf.RateLimit.Burst == nil {
		// Rate limiting is disabled
		return func(c *gin.Context) {
			c.Next()
		}
	}

	rps := *conf.RateLimit.RequestsPerSecond
	burst := *conf.RateLimit.Burst
	ttl := time.Hour
	if conf.RateLimit.CleanupIntervalSec != nil {
		ttl = time.Duration(*conf.RateLimit.CleanupIntervalSec) * time.Second
	}

	lmt := tollbooth.NewLimiter(rps, &limiter.ExpirableOptions{
		DefaultExpirationTTL: ttl,
	})
	lmt.SetBurst(burst)
	return func(c *gin.Context) {
		httpError := tollbooth.LimitByRequest(lmt, c.Writer, c.Request)
		if httpError != nil {
			abort(c, httpError.StatusCode, apierror.ErrConcurrencyConflict, strings.TrimSpace(httpError.Message))
			return
		}
		c.Next()
	}
}

// SecretKeyAuthMiddleware rejects requests whose X-Landledger-Key header does not
// match the configured server secret.
func SecretKeyAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		conf, err := config.Fetch()
		if err != nil || conf.Server.SecretKey == "" {
			abort(c, http.StatusInternalServerError, apierror.ErrInternalServer, "Secret key is not configured")
			return
		}

		clientSecret := c.GetHeader(SecretKeyHeader)
		if clientSecret == "" {
			abort(c, http.StatusUnauthorized, apierror.ErrValidation, "Missing secret key")
			return
		}

		if !secureCompare(conf.Server.SecretKey, clientSecret) {
			abort(c, http.StatusUnauthorized, apierror.ErrValidation, "Invalid secret key")
			return
		}

		c.Next()
	}
}

// ActorMiddleware resolves the administrator performing the request from the
// actor headers. Mutating handlers reject requests without an actor id.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := model.Actor{
			ID:   strings.TrimSpace(c.GetHeader(ActorIDHeader)),
			Name: strings.TrimSpace(c.GetHeader(ActorNameHeader)),
		}
		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// ActorFromContext returns the actor stored by ActorMiddleware, or the zero actor.
func ActorFromContext(c *gin.Context) model.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(model.Actor); ok {
			return actor
		}
	}
	return model.Actor{}
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
