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
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/landledger/landledger/internal/apierror"
)

type errorBody struct {
	Kind    apierror.ErrorCode `json:"kind"`
	Message string             `json:"message"`
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

// respondError writes err as an error envelope. Only APIErrors expose their
// message; anything else is reported as an internal error.
func respondError(c *gin.Context, err error) {
	var apiErr apierror.APIError
	if !errors.As(err, &apiErr) {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("unhandled error")
		apiErr = apierror.APIError{Code: apierror.ErrInternalServer, Message: "internal server error"}
	}
	c.JSON(apierror.MapErrorToHTTPStatus(apiErr), Response{
		Success: false,
		Error:   &errorBody{Kind: apiErr.Code, Message: apiErr.Message},
	})
}

func badRequest(c *gin.Context, err error) {
	respondError(c, apierror.APIError{Code: apierror.ErrValidation, Message: err.Error()})
}

// bindJSON decodes the body into dst and answers with a validation error when
// the body is malformed.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, errors.New("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apierror.APIError{Code: apierror.ErrValidation, Message: key + " must be an integer"}
	}
	return v, nil
}

func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apierror.APIError{Code: apierror.ErrValidation, Message: key + " must be an RFC3339 timestamp"}
	}
	return &t, nil
}

func pagination(c *gin.Context) (limit, offset int, err error) {
	if limit, err = queryInt(c, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(c, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}
