package landledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/landledger/landledger/config"
	"github.com/landledger/landledger/internal/cache"
	"github.com/landledger/landledger/model"
)

// GetFinancialSummary returns the portfolio totals. Summaries are cached under
// the generation that was current before the totals were read. Every committed
// mutation bumps the generation, so a summary computed concurrently with a
// mutation is stored under a key no later reader looks up.
func (l *LandLedger) GetFinancialSummary(ctx context.Context) (*model.FinancialSummary, error) {
	ctx, span := tracer.Start(ctx, "report.summary")
	defer span.End()

	key, cacheable := l.summaryKey(ctx)
	if cacheable {
		if summary, ok := l.cachedSummary(ctx, key); ok {
			return summary, nil
		}
	}

	summary, err := l.datasource.GetFinancialTotals(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	summary.GeneratedAt = l.now()

	if cacheable {
		cfg, err := config.Fetch()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(summary)
		if err == nil {
			err = l.cache.Set(ctx, key, data, cfg.ReportCacheTTL())
		}
		if err != nil {
			logrus.WithError(err).Warn("failed to cache financial summary")
		}
	}
	return summary, nil
}

// summaryKey returns the cache key for the current generation. Without a
// readable generation the summary is served uncached.
func (l *LandLedger) summaryKey(ctx context.Context) (string, bool) {
	if l.cache == nil {
		return "", false
	}
	generation, err := l.cache.Counter(ctx, summaryGenerationKey)
	if err != nil {
		logrus.WithError(err).Warn("failed to read financial summary generation")
		return "", false
	}
	return summaryCacheKey(generation), true
}

func (l *LandLedger) cachedSummary(ctx context.Context, key string) (*model.FinancialSummary, bool) {
	var data []byte
	err := l.cache.Get(ctx, key, &data)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logrus.WithError(err).Warn("failed to read cached financial summary")
		}
		l.metrics.IncrReportCache(false)
		return nil, false
	}

	summary := &model.FinancialSummary{}
	if err := json.Unmarshal(data, summary); err != nil {
		logrus.WithError(err).Warn("discarding unreadable cached financial summary")
		l.metrics.IncrReportCache(false)
		return nil, false
	}
	l.metrics.IncrReportCache(true)
	return summary, true
}

// GetMonthlyDetails breaks one calendar month (UTC) of a movement kind down by day.
func (l *LandLedger) GetMonthlyDetails(ctx context.Context, year, month int, kind model.MonthlyKind) (*model.MonthlyDetails, error) {
	ctx, span := tracer.Start(ctx, "report.monthly")
	defer span.End()

	if year < 1970 || year > 9999 {
		return nil, validationError("year must be between 1970 and 9999")
	}
	if month < 1 || month > 12 {
		return nil, validationError("month must be between 1 and 12")
	}
	entryKind, purpose, ok := kind.EntrySelector()
	if !ok {
		return nil, validationError("unknown report kind %q", kind)
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	days, err := l.datasource.GetDailyTotals(ctx, entryKind, purpose, from, to)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	details := &model.MonthlyDetails{
		Year:  year,
		Month: month,
		Kind:  kind,
		Total: decimal.Zero,
		Days:  days,
	}
	if details.Days == nil {
		details.Days = []model.DailyTotal{}
	}
	for _, d := range days {
		details.Total = details.Total.Add(d.Total)
		details.Count += d.Count
	}
	return details, nil
}
