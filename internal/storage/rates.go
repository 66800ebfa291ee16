package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aikirias/FinTrack/internal/core"
)

type CreateExchangeRateParams struct {
	EffectiveDate time.Time
	Source        string
	Rates         core.RateValues
	IsManual      bool
	RawPayload    string
}

const exchangeRateColumns = `id, effective_date, source, usd_ars_official, usd_ars_blue,
	btc_usd, btc_ars, is_manual, raw_payload, created_at`

// CreateExchangeRate persists a quote. A second quote for the same
// (effective date, source) pair fails with core.ErrDuplicateQuote.
func (q *Queries) CreateExchangeRate(ctx context.Context, arg CreateExchangeRateParams) (core.ExchangeRate, error) {
	var source any
	if arg.Source != "" {
		source = arg.Source
	}
	var blue any
	if arg.Rates.USDARSBlue.Valid {
		blue = arg.Rates.USDARSBlue.Decimal.String()
	}

	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO exchange_rates (
			effective_date, source, usd_ars_official, usd_ars_blue,
			btc_usd, btc_ars, is_manual, raw_payload, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fmtDate(arg.EffectiveDate),
		source,
		arg.Rates.USDARSOfficial.String(),
		blue,
		arg.Rates.BTCUSD.String(),
		arg.Rates.BTCARS.String(),
		arg.IsManual,
		arg.RawPayload,
		fmtTime(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ExchangeRate{}, core.ErrDuplicateQuote
		}
		return core.ExchangeRate{}, fmt.Errorf("insert exchange rate: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.ExchangeRate{}, fmt.Errorf("exchange rate id: %w", err)
	}
	return q.GetExchangeRate(ctx, id)
}

func (q *Queries) GetExchangeRate(ctx context.Context, id int64) (core.ExchangeRate, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+exchangeRateColumns+`
		FROM exchange_rates WHERE id = ?`, id)
	return scanExchangeRate(row)
}

// GetLatestExchangeRate returns the quote with the most recent effective
// date, ties broken by creation time.
func (q *Queries) GetLatestExchangeRate(ctx context.Context) (core.ExchangeRate, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+exchangeRateColumns+`
		FROM exchange_rates
		ORDER BY effective_date DESC, created_at DESC, id DESC
		LIMIT 1`)
	return scanExchangeRate(row)
}

// GetExchangeRateForDate returns the newest quote for the exact date, so a
// later correction for the same day wins over the original row.
func (q *Queries) GetExchangeRateForDate(ctx context.Context, date time.Time) (core.ExchangeRate, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+exchangeRateColumns+`
		FROM exchange_rates
		WHERE effective_date = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, fmtDate(date))
	return scanExchangeRate(row)
}

// DeleteExchangeRate removes a stored quote. Transactions keep their quote
// id; reprocessing falls back to the quote of their date.
func (q *Queries) DeleteExchangeRate(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM exchange_rates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete exchange rate: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExchangeRate(row rowScanner) (core.ExchangeRate, error) {
	var (
		rate               core.ExchangeRate
		effectiveDate      string
		source, rawPayload sql.NullString
		official, btcUSD   string
		btcARS, createdAt  string
		blue               sql.NullString
	)
	err := row.Scan(&rate.ID, &effectiveDate, &source, &official, &blue,
		&btcUSD, &btcARS, &rate.IsManual, &rawPayload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExchangeRate{}, core.ErrNotFound
	}
	if err != nil {
		return core.ExchangeRate{}, fmt.Errorf("scan exchange rate: %w", err)
	}

	if rate.EffectiveDate, err = parseDate(effectiveDate); err != nil {
		return core.ExchangeRate{}, fmt.Errorf("parse effective date: %w", err)
	}
	if rate.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.ExchangeRate{}, fmt.Errorf("parse created at: %w", err)
	}
	rate.Source = source.String
	rate.RawPayload = rawPayload.String

	if rate.Rates.USDARSOfficial, err = parseDecimal(official); err != nil {
		return core.ExchangeRate{}, fmt.Errorf("parse official rate: %w", err)
	}
	if rate.Rates.USDARSBlue, err = parseNullDecimal(blue); err != nil {
		return core.ExchangeRate{}, fmt.Errorf("parse blue rate: %w", err)
	}
	if rate.Rates.BTCUSD, err = parseDecimal(btcUSD); err != nil {
		return core.ExchangeRate{}, fmt.Errorf("parse BTC/USD rate: %w", err)
	}
	if rate.Rates.BTCARS, err = parseDecimal(btcARS); err != nil {
		return core.ExchangeRate{}, fmt.Errorf("parse BTC/ARS rate: %w", err)
	}
	return rate, nil
}
