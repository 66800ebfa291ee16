// Package services wires the domain engines to storage and external
// collaborators: rate resolution and refresh, the transaction write path,
// bulk reprocessing and reporting.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aikirias/FinTrack/internal/core"
	"github.com/aikirias/FinTrack/internal/storage"
)

// Fetcher supplies today's rates from the upstream providers. It has no
// caching of its own; the daily-refresh policy is the cache.
type Fetcher interface {
	FetchDaily(ctx context.Context) (core.RateValues, json.RawMessage, error)
}

type RateService struct {
	store   *storage.SQLiteRepository
	fetcher Fetcher
	now     func() time.Time
}

func NewRateService(store *storage.SQLiteRepository, fetcher Fetcher) *RateService {
	return &RateService{
		store:   store,
		fetcher: fetcher,
		now:     time.Now,
	}
}

// EnsureDaily guarantees a quote exists for today's (UTC) date and returns
// it. After the first successful call of a day, subsequent calls return the
// stored quote without touching the fetcher. When two callers race past the
// existence check, the store's uniqueness constraint picks a winner and the
// loser returns the winning row.
func (s *RateService) EnsureDaily(ctx context.Context) (core.ExchangeRate, error) {
	today := core.DateOnly(s.now().UTC())

	existing, err := s.store.GetExchangeRateForDate(ctx, today)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.ExchangeRate{}, fmt.Errorf("look up today's rate: %w", err)
	}

	values, raw, err := s.fetcher.FetchDaily(ctx)
	if err != nil {
		return core.ExchangeRate{}, err
	}
	if err := values.Validate(); err != nil {
		return core.ExchangeRate{}, fmt.Errorf("%w: %v", core.ErrRateFetchFailed, err)
	}

	created, err := s.store.CreateExchangeRate(ctx, storage.CreateExchangeRateParams{
		EffectiveDate: today,
		Rates:         values,
		IsManual:      false,
		RawPayload:    string(raw),
	})
	if errors.Is(err, core.ErrDuplicateQuote) {
		// Another caller persisted first; their row is the quote of the day.
		return s.store.GetExchangeRateForDate(ctx, today)
	}
	if err != nil {
		return core.ExchangeRate{}, fmt.Errorf("store daily rate: %w", err)
	}

	slog.InfoContext(ctx, "Daily exchange rate stored",
		"id", created.ID,
		"date", created.EffectiveDate.Format("2006-01-02"),
		"usd_ars_official", created.Rates.USDARSOfficial.String())
	return created, nil
}

// Pick resolves the rates a conversion should use. Precedence: a caller
// override wins outright (no store lookup), then an explicitly referenced
// quote, then the latest stored quote, then a fresh daily refresh.
func (s *RateService) Pick(ctx context.Context, quoteID *int64, override *core.RateValues, fallbackToLatest bool) (*core.ExchangeRate, core.RateValues, error) {
	if override != nil {
		if err := override.Validate(); err != nil {
			return nil, core.RateValues{}, err
		}
		return nil, *override, nil
	}

	var quote *core.ExchangeRate
	if quoteID != nil {
		found, err := s.store.GetExchangeRate(ctx, *quoteID)
		switch {
		case err == nil:
			quote = &found
		case errors.Is(err, core.ErrNotFound):
			// fall through to the latest quote below
		default:
			return nil, core.RateValues{}, fmt.Errorf("look up rate %d: %w", *quoteID, err)
		}
	}

	if quote == nil && fallbackToLatest {
		latest, err := s.store.GetLatestExchangeRate(ctx)
		switch {
		case err == nil:
			quote = &latest
		case errors.Is(err, core.ErrNotFound):
			fresh, err := s.EnsureDaily(ctx)
			if err != nil {
				return nil, core.RateValues{}, err
			}
			quote = &fresh
		default:
			return nil, core.RateValues{}, fmt.Errorf("look up latest rate: %w", err)
		}
	}

	if quote == nil {
		return nil, core.RateValues{}, core.ErrNoRateAvailable
	}
	return quote, quote.Rates, nil
}

// CreateOverride stores a manually entered quote for a date. Manual quotes
// are never touched by the daily refresh, and a date that already has a
// quote is rejected rather than silently replaced.
func (s *RateService) CreateOverride(ctx context.Context, date time.Time, values core.RateValues, source string) (core.ExchangeRate, error) {
	if err := values.Validate(); err != nil {
		return core.ExchangeRate{}, err
	}

	day := core.DateOnly(date)
	if _, err := s.store.GetExchangeRateForDate(ctx, day); err == nil {
		return core.ExchangeRate{}, core.ErrDuplicateQuote
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.ExchangeRate{}, fmt.Errorf("look up rate for %s: %w", day.Format("2006-01-02"), err)
	}

	created, err := s.store.CreateExchangeRate(ctx, storage.CreateExchangeRateParams{
		EffectiveDate: day,
		Source:        source,
		Rates:         values,
		IsManual:      true,
	})
	if err != nil {
		return core.ExchangeRate{}, err
	}

	slog.InfoContext(ctx, "Manual exchange rate stored",
		"id", created.ID,
		"date", created.EffectiveDate.Format("2006-01-02"))
	return created, nil
}
