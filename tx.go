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

package landledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/landledger/landledger/config"
	"github.com/landledger/landledger/database"
	"github.com/landledger/landledger/internal/apierror"
	redlock "github.com/landledger/landledger/internal/lock"
	"github.com/landledger/landledger/internal/metrics"
	"github.com/landledger/landledger/internal/notification"
	"github.com/landledger/landledger/model"
)

const (
	summaryGenerationKey = "landledger:report:summary:generation"

	// defaultSideEffectTimeout applies when the configuration cannot be read.
	defaultSideEffectTimeout = 5 * time.Second
)

func summaryCacheKey(generation int64) string {
	return fmt.Sprintf("landledger:report:summary:%d", generation)
}

// withTx runs fn as one unit of work bounded by the configured transaction
// timeout and records the outcome under operation.
func (l *LandLedger) withTx(ctx context.Context, operation string, fn func(ctx context.Context, tx database.Tx) error) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.TransactionTimeout())
	defer cancel()

	start := time.Now()
	err = l.datasource.RunInTx(ctx, func(tx database.Tx) error {
		return fn(ctx, tx)
	})
	l.observe(operation, start, err)
	return err
}

func (l *LandLedger) observe(operation string, start time.Time, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = string(apierror.CodeOf(err))
		if apierror.Is(err, apierror.ErrConcurrencyConflict) {
			l.metrics.IncrConflict(operation)
		}
	}
	l.metrics.ObserveOperation(operation, outcome, time.Since(start))
}

// afterCommit runs the side effects of a committed mutation. Failures here are
// logged and counted, never returned: the financial state is already durable.
// The summary generation is bumped before returning so the caller reads its own
// write in the next summary. Notifications are delivered in the background, each
// under its own deadline, and never hold the caller.
func (l *LandLedger) afterCommit(ctx context.Context, events ...model.Event) {
	ctx = context.WithoutCancel(ctx)
	timeout := defaultSideEffectTimeout
	if cfg, err := config.Fetch(); err == nil {
		timeout = cfg.NotificationTimeout()
	}

	if l.cache != nil {
		cacheCtx, cancel := context.WithTimeout(ctx, timeout)
		if _, err := l.cache.Incr(cacheCtx, summaryGenerationKey); err != nil {
			l.sideEffectFailed("cache_invalidation", err)
		}
		cancel()
	}

	if len(events) == 0 {
		return
	}
	l.notifications.Add(1)
	go func() {
		defer l.notifications.Done()
		for _, event := range events {
			l.notify(ctx, event, timeout)
		}
	}()
}

func (l *LandLedger) notify(ctx context.Context, event model.Event, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := l.notifier.Notify(ctx, event); err != nil {
		l.sideEffectFailed("notification", fmt.Errorf("event %s (%s): %w", event.Event, event.EventID, err))
	}
}

func (l *LandLedger) sideEffectFailed(kind string, err error) {
	l.metrics.IncrSideEffectError(kind)
	notification.NotifyError(fmt.Errorf("%s: %w", kind, err))
}

// lockLoan serialises admins working on the same loan across server instances.
// Row locks inside the unit still guard correctness; this lock only turns a
// pile-up of concurrent admins into a fast, explicit conflict. Without redis it
// is a no-op.
func (l *LandLedger) lockLoan(ctx context.Context, loanID string) (func(), error) {
	if l.redis == nil {
		return func() {}, nil
	}

	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	locker := redlock.NewLocker(l.redis, redlock.LoanKey(loanID), uuid.NewString())
	ttl := time.Duration(cfg.Loan.LockTTLSeconds) * time.Second
	wait := time.Duration(cfg.Loan.LockWaitSeconds) * time.Second
	if err := locker.WaitLock(ctx, ttl, wait); err != nil {
		if errors.Is(err, redlock.ErrNotAcquired) {
			return nil, apierror.NewAPIError(apierror.ErrConcurrencyConflict, "loan is being modified by another operation, retry the operation", err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "failed to acquire loan lock", err)
	}

	return func() {
		if err := locker.Unlock(context.WithoutCancel(ctx)); err != nil {
			logrus.WithError(err).WithField("loan_id", loanID).Warn("failed to release loan lock")
		}
	}, nil
}

func validationError(format string, args ...interface{}) error {
	return apierror.NewAPIError(apierror.ErrValidation, fmt.Sprintf(format, args...), nil)
}

func invalidOperation(format string, args ...interface{}) error {
	return apierror.NewAPIError(apierror.ErrInvalidOperation, fmt.Sprintf(format, args...), nil)
}

func validateActor(actor model.Actor) error {
	if actor.ID == "" {
		return validationError("actor id is required")
	}
	return nil
}

// validateAmount accepts strictly positive amounts with at most two decimal places.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return validationError("amount must be greater than zero")
	}
	if !model.HasMoneyPrecision(amount) {
		return validationError("amount must have at most %d decimal places", model.MoneyPlaces)
	}
	return nil
}
