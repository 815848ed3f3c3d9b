// Package pricestore caches day-ahead prices keyed by calendar date and
// assembles multi-day evaluation contexts for the condition engine.
package pricestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okalita/spot-optimizer/internal/condition"
	"github.com/okalita/spot-optimizer/internal/pricing"
	"github.com/okalita/spot-optimizer/pkg/logger"
)

// DateFormat is the calendar-date key format used throughout the store.
const DateFormat = "2006-01-02"

// DayPrices holds the 24 hourly prices of one calendar day.
type DayPrices [pricing.HoursPerDay]float64

// Fetcher retrieves the hourly prices for one calendar date from upstream.
type Fetcher interface {
	FetchDay(ctx context.Context, date string) ([]float64, error)
}

// Store is a concurrent get-or-fetch cache of day prices. Concurrent misses
// for the same date are collapsed into a single upstream fetch.
type Store struct {
	mu      sync.RWMutex
	days    map[string]DayPrices
	group   singleflight.Group
	fetcher Fetcher
}

// New creates an empty store backed by the given fetcher.
func New(fetcher Fetcher) *Store {
	return &Store{
		days:    make(map[string]DayPrices),
		fetcher: fetcher,
	}
}

// GetDay returns the prices for one calendar date, fetching and caching them
// on first request. Fetch failures are not cached; the next caller retries.
func (s *Store) GetDay(ctx context.Context, date time.Time) (DayPrices, error) {
	key := date.Format(DateFormat)

	s.mu.RLock()
	day, ok := s.days[key]
	s.mu.RUnlock()
	if ok {
		logger.PriceCacheLookups.WithLabelValues("hit").Inc()
		return day, nil
	}
	logger.PriceCacheLookups.WithLabelValues("miss").Inc()

	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		// Another caller may have filled the entry while we queued.
		s.mu.RLock()
		day, ok := s.days[key]
		s.mu.RUnlock()
		if ok {
			return day, nil
		}

		prices, err := s.fetcher.FetchDay(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch prices for %s: %w", key, err)
		}
		if len(prices) != pricing.HoursPerDay {
			return nil, fmt.Errorf("expected %d prices for %s, got %d", pricing.HoursPerDay, key, len(prices))
		}

		var fetched DayPrices
		copy(fetched[:], prices)

		s.mu.Lock()
		s.days[key] = fetched
		s.mu.Unlock()

		return fetched, nil
	})
	if err != nil {
		return DayPrices{}, err
	}
	return value.(DayPrices), nil
}

// EvaluationContext assembles a condition evaluation context for the given
// instant. The day containing now is required; the neighbouring days are
// appended when available so windows may reach across midnight. Fetch
// failures for the neighbours are tolerated, the series just shrinks.
func (s *Store) EvaluationContext(ctx context.Context, now time.Time) (*condition.Context, error) {
	today, err := s.GetDay(ctx, now)
	if err != nil {
		return nil, err
	}

	prices := today[:]
	nowIndex := now.Hour()

	if yesterday, err := s.GetDay(ctx, now.AddDate(0, 0, -1)); err == nil {
		prices = append(yesterday[:], prices...)
		nowIndex += pricing.HoursPerDay
	} else {
		logger.Debug("No prices for the previous day",
			logger.Time("now", now),
			logger.ErrorField(err),
		)
	}

	if tomorrow, err := s.GetDay(ctx, now.AddDate(0, 0, 1)); err == nil {
		prices = append(prices, tomorrow[:]...)
	} else {
		// Tomorrow's prices are published in the early afternoon; missing
		// data here is the normal morning case.
		logger.Debug("No prices for the next day",
			logger.Time("now", now),
			logger.ErrorField(err),
		)
	}

	return condition.NewContext(now, prices, nowIndex), nil
}
