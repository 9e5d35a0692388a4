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
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/landledger/landledger/config"
	"github.com/landledger/landledger/database"
	"github.com/landledger/landledger/internal/apierror"
	"github.com/landledger/landledger/model"
)

// errIdentifierTaken signals that the counter produced an identifier another
// writer already holds. The attempt is retried with the next counter value.
var errIdentifierTaken = errors.New("identifier already issued")

func sequenceBackOff(maxAttempts int) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, uint64(maxAttempts-1))
}

// claimNext advances the (seqType, period) counter and claims the identifier it
// maps to. Each attempt is its own unit so a collision still consumes the
// counter value and the next attempt moves past it.
func (l *LandLedger) claimNext(ctx context.Context, seqType, period string, capacity int64, format func(int64) string) (*model.SequenceValue, error) {
	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	var result *model.SequenceValue
	attempts := 0
	operation := func() error {
		attempts++
		collided := false
		err := l.withTx(ctx, "sequence.next", func(ctx context.Context, tx database.Tx) error {
			value, ok, err := tx.NextSequenceValue(ctx, seqType, period, capacity)
			if err != nil {
				return err
			}
			if !ok {
				return apierror.NewAPIError(apierror.ErrExhaustedSequenceSpace, "sequence space exhausted for "+seqType+" "+period, nil)
			}

			identifier := format(value)
			claimed, err := tx.ClaimIdentifier(ctx, seqType, identifier)
			if err != nil {
				return err
			}
			if !claimed {
				collided = true
				return nil
			}
			result = &model.SequenceValue{
				Type:       seqType,
				Period:     period,
				Value:      value,
				Identifier: identifier,
			}
			return nil
		})
		switch {
		case err == nil && collided:
			l.metrics.IncrSequenceRetry(seqType)
			return errIdentifierTaken
		case err == nil:
			return nil
		case apierror.Is(err, apierror.ErrConcurrencyConflict):
			l.metrics.IncrSequenceRetry(seqType)
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	err = backoff.Retry(operation, backoff.WithContext(sequenceBackOff(cfg.Sequence.MaxAttempts), ctx))
	if err != nil {
		if errors.Is(err, errIdentifierTaken) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, apierror.NewAPIError(apierror.ErrConcurrencyConflict, "could not claim a unique identifier, retry the operation", map[string]interface{}{
				"type":     seqType,
				"period":   period,
				"attempts": attempts,
			})
		}
		return nil, err
	}
	result.Attempts = attempts
	return result, nil
}

// NextDocumentNumber issues the next identifier for docType within period, for
// example INV-2024-00001. Numbers are never reused even when a unit that claimed
// one later fails.
func (l *LandLedger) NextDocumentNumber(ctx context.Context, docType, period string) (*model.SequenceValue, error) {
	ctx, span := tracer.Start(ctx, "sequence.document")
	defer span.End()

	docType = strings.ToUpper(strings.TrimSpace(docType))
	period = strings.ToUpper(strings.TrimSpace(period))
	span.SetAttributes(attribute.String("sequence.type", docType), attribute.String("sequence.period", period))

	if !model.ValidSequenceToken(docType) {
		return nil, validationError("document type must be 1-12 uppercase letters or digits")
	}
	if docType == model.PhoneSequenceType {
		return nil, validationError("document type %s is reserved", model.PhoneSequenceType)
	}
	if !model.ValidSequenceToken(period) {
		return nil, validationError("period must be 1-12 uppercase letters or digits")
	}

	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	digits := cfg.Sequence.DocumentDigits

	value, err := l.claimNext(ctx, docType, period, model.SequenceCapacity(digits), func(v int64) string {
		return model.FormatDocumentNumber(docType, period, v, digits)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return value, nil
}

// NextPhoneNumber issues a fallback phone number. Prefixes are used in their
// configured order and a prefix is only left once its counter space is full.
func (l *LandLedger) NextPhoneNumber(ctx context.Context) (*model.SequenceValue, error) {
	ctx, span := tracer.Start(ctx, "sequence.phone")
	defer span.End()

	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	digits := cfg.Sequence.PhoneDigits
	capacity := model.SequenceCapacity(digits)

	for _, prefix := range cfg.Sequence.PhonePrefixes {
		value, err := l.claimNext(ctx, model.PhoneSequenceType, prefix, capacity, func(v int64) string {
			return model.FormatPhoneNumber(prefix, v, digits)
		})
		if err == nil {
			return value, nil
		}
		if !apierror.Is(err, apierror.ErrExhaustedSequenceSpace) {
			span.RecordError(err)
			return nil, err
		}
	}

	err = apierror.NewAPIError(apierror.ErrExhaustedSequenceSpace, "all phone number prefixes are exhausted", nil)
	span.RecordError(err)
	return nil, err
}

// RegisterIssuedIdentifier records an identifier issued outside the generator,
// such as numbers imported from a previous system, so the generator never
// hands it out again.
func (l *LandLedger) RegisterIssuedIdentifier(ctx context.Context, seqType, identifier string) error {
	seqType = strings.ToUpper(strings.TrimSpace(seqType))
	identifier = strings.TrimSpace(identifier)
	if !model.ValidSequenceToken(seqType) {
		return validationError("sequence type must be 1-12 uppercase letters or digits")
	}
	if identifier == "" {
		return validationError("identifier is required")
	}

	return l.withTx(ctx, "sequence.register", func(ctx context.Context, tx database.Tx) error {
		claimed, err := tx.ClaimIdentifier(ctx, seqType, identifier)
		if err != nil {
			return err
		}
		if !claimed {
			return invalidOperation("identifier %s is already issued", identifier)
		}
		return nil
	})
}
