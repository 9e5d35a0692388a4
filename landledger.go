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
	"embed"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/landledger/landledger/config"
	"github.com/landledger/landledger/database"
	"github.com/landledger/landledger/internal/cache"
	"github.com/landledger/landledger/internal/metrics"
)

var tracer = otel.Tracer("landledger")

//go:embed sql/*.sql
var SQLFiles embed.FS

// LandLedger is the service layer: the ledger engine, the loan engine, the
// sequence generator and the reporting aggregator share one datasource.
type LandLedger struct {
	datasource database.IDataSource
	redis      redis.UniversalClient
	cache      cache.Cache
	notifier   Notifier
	metrics    *metrics.Metrics
	now        func() time.Time

	// notifications tracks in-flight post-commit deliveries.
	notifications sync.WaitGroup
}

type Option func(*LandLedger)

// WithRedis enables the per-loan distributed lock and the report cache.
func WithRedis(client redis.UniversalClient) Option {
	return func(l *LandLedger) {
		l.redis = client
		l.cache = cache.NewCache(client)
	}
}

// WithCache overrides the report cache.
func WithCache(c cache.Cache) Option {
	return func(l *LandLedger) {
		l.cache = c
	}
}

func WithNotifier(n Notifier) Option {
	return func(l *LandLedger) {
		l.notifier = n
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *LandLedger) {
		l.metrics = m
	}
}

// WithClock replaces the wall clock used for timestamps, due dates and interest.
func WithClock(now func() time.Time) Option {
	return func(l *LandLedger) {
		l.now = now
	}
}

// NewLandLedger initializes the service on top of db. Configuration must be
// loaded first.
//
// Parameters:
// - db database.IDataSource: the datasource for every read and unit of work.
// - opts ...Option: optional redis, notifier, metrics and clock.
//
// Returns:
// - *LandLedger: the service.
// - error: an error if the configuration is not loaded.
func NewLandLedger(db database.IDataSource, opts ...Option) (*LandLedger, error) {
	if _, err := config.Fetch(); err != nil {
		return nil, err
	}

	l := &LandLedger{
		datasource: db,
		notifier:   noopNotifier{},
		metrics:    metrics.NewMetrics(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Shutdown waits for in-flight notifications until ctx ends.
func (l *LandLedger) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.notifications.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *LandLedger) Metrics() *metrics.Metrics {
	return l.metrics
}

func (l *LandLedger) Datasource() database.IDataSource {
	return l.datasource
}
