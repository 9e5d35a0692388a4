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

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/landledger/landledger/internal/apierror"
)

// mapError turns driver and context errors into APIErrors. Errors that already
// are APIErrors pass through untouched.
func mapError(err error, message string) error {
	if err == nil {
		return nil
	}

	var apiErr apierror.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apierror.NewAPIError(apierror.ErrConcurrencyConflict, "transaction timed out, retry the operation", err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "serialization_failure", "deadlock_detected", "lock_not_available", "query_canceled":
			return apierror.NewAPIError(apierror.ErrConcurrencyConflict, "transaction aborted by a concurrent update, retry the operation", err)
		case "unique_violation":
			return apierror.NewAPIError(apierror.ErrInvalidOperation, "a record with the same unique value already exists", err)
		case "foreign_key_violation":
			return apierror.NewAPIError(apierror.ErrNotFound, "referenced record does not exist", err)
		case "check_violation", "raise_exception":
			return apierror.NewAPIError(apierror.ErrInvalidOperation, "operation rejected by a store constraint", err)
		}
	}

	return apierror.NewAPIError(apierror.ErrInternalServer, message, err)
}

func notFound(entity, id string) error {
	return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("%s with ID '%s' not found", entity, id), nil)
}
