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

package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrValidation             ErrorCode = "VALIDATION_ERROR"
	ErrInsufficientFunds      ErrorCode = "INSUFFICIENT_FUNDS"
	ErrInvalidOperation       ErrorCode = "INVALID_OPERATION"
	ErrNotFound               ErrorCode = "NOT_FOUND"
	ErrExhaustedSequenceSpace ErrorCode = "EXHAUSTED_SEQUENCE_SPACE"
	ErrConcurrencyConflict    ErrorCode = "CONCURRENCY_CONFLICT"
	ErrOverpaymentRejected    ErrorCode = "OVERPAYMENT_REJECTED"
	ErrInternalServer         ErrorCode = "INTERNAL_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	if details != nil {
		logrus.WithField("code", code).Error(details)
	}
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Is reports whether err carries an APIError with the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// CodeOf returns the code of an APIError, or ErrInternalServer for anything else.
func CodeOf(err error) ErrorCode {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrInternalServer
}

func MapErrorToHTTPStatus(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case ErrValidation:
			return http.StatusBadRequest
		case ErrNotFound:
			return http.StatusNotFound
		case ErrInvalidOperation, ErrConcurrencyConflict:
			return http.StatusConflict
		case ErrInsufficientFunds, ErrOverpaymentRejected:
			return http.StatusUnprocessableEntity
		case ErrExhaustedSequenceSpace:
			return http.StatusServiceUnavailable
		case ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
