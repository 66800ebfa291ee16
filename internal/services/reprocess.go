package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aikirias/FinTrack/internal/core"
	"github.com/aikirias/FinTrack/internal/storage"
)

// Reprocessor recomputes stored derived amounts after a rate changes. The
// whole batch runs inside one store transaction: either every recomputed
// row is visible afterwards or none are.
type Reprocessor struct {
	store *storage.SQLiteRepository
}

func NewReprocessor(store *storage.SQLiteRepository) *Reprocessor {
	return &Reprocessor{store: store}
}

// ReprocessFilter selects the candidate transactions. At least one field
// must be set. A quote id pins every candidate to that quote; the date
// range narrows the candidate set, unbounded sides allowed.
type ReprocessFilter struct {
	ExchangeRateID *int64
	Start          *time.Time
	End            *time.Time
}

type ReprocessResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
}

func (f ReprocessFilter) validate() error {
	if f.ExchangeRateID == nil && f.Start == nil && f.End == nil {
		return core.ErrEmptyFilter
	}
	if f.Start != nil && f.End != nil && f.End.Before(*f.Start) {
		return core.ErrInvalidRange
	}
	return nil
}

// Reprocess recomputes the derived amounts of every matching transaction of
// the user. Candidates created from ad-hoc overrides carry no quote
// reference and are skipped unless an explicit target quote is given, since
// there is nothing stored to resynchronize them against.
func (r *Reprocessor) Reprocess(ctx context.Context, userID int64, filter ReprocessFilter) (ReprocessResult, error) {
	if err := filter.validate(); err != nil {
		return ReprocessResult{}, err
	}

	var result ReprocessResult
	err := r.store.WithTx(ctx, func(q *storage.Queries) error {
		var target *core.ExchangeRate
		if filter.ExchangeRateID != nil {
			quote, err := q.GetExchangeRate(ctx, *filter.ExchangeRateID)
			if err != nil {
				return fmt.Errorf("target rate %d: %w", *filter.ExchangeRateID, err)
			}
			target = &quote
		}

		candidates, err := q.ListTransactionsInRange(ctx, userID, filter.Start, filter.End)
		if err != nil {
			return err
		}
		result.Processed = len(candidates)

		// Quote-of-date lookups repeat across a batch; cache them per day.
		// A nil entry records a day known to have no quote.
		byDate := make(map[string]*core.ExchangeRate)

		for _, t := range candidates {
			quote, err := resolveQuote(ctx, q, t, target, byDate)
			if err != nil {
				return err
			}
			if quote == nil {
				result.Skipped++
				continue
			}

			amounts, err := core.Convert(t.AmountOriginal, t.Currency, quote.Rates, t.RateType)
			if err != nil {
				return fmt.Errorf("convert transaction %d: %w", t.ID, err)
			}
			if err := q.UpdateTransactionAmounts(ctx, t.ID, amounts, &quote.ID); err != nil {
				return err
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return ReprocessResult{}, err
	}

	slog.InfoContext(ctx, "Reprocessing finished",
		"user_id", userID,
		"processed", result.Processed,
		"updated", result.Updated,
		"skipped", result.Skipped)
	return result, nil
}

func resolveQuote(ctx context.Context, q *storage.Queries, t core.Transaction, target *core.ExchangeRate, byDate map[string]*core.ExchangeRate) (*core.ExchangeRate, error) {
	if target != nil {
		return target, nil
	}
	if t.ExchangeRateID == nil {
		// Override-born transaction; nothing stored to resynchronize.
		return nil, nil
	}

	linked, err := q.GetExchangeRate(ctx, *t.ExchangeRateID)
	if err == nil {
		return &linked, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	// The linked quote is gone; fall back to the quote of the
	// transaction's own day.
	key := core.DateOnly(t.Date).Format("2006-01-02")
	if cached, ok := byDate[key]; ok {
		return cached, nil
	}
	forDate, err := q.GetExchangeRateForDate(ctx, core.DateOnly(t.Date))
	switch {
	case err == nil:
		byDate[key] = &forDate
		return &forDate, nil
	case errors.Is(err, core.ErrNotFound):
		byDate[key] = nil
		return nil, nil
	default:
		return nil, err
	}
}
