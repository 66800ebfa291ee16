package services

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aikirias/FinTrack/internal/core"
	"github.com/aikirias/FinTrack/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func testRateValues(t *testing.T) core.RateValues {
	return core.RateValues{
		USDARSOfficial: dec(t, "1000"),
		USDARSBlue:     decimal.NullDecimal{Decimal: dec(t, "1300"), Valid: true},
		BTCUSD:         dec(t, "50000"),
		BTCARS:         dec(t, "65000000"),
	}
}

func seedUserAccount(t *testing.T, store *storage.SQLiteRepository) (userID, accountID int64) {
	t.Helper()
	ctx := context.Background()
	userID, err := store.CreateUser(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	accountID, err = store.CreateAccount(ctx, userID, "Efectivo", core.ARS)
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	return userID, accountID
}

func seedQuote(t *testing.T, store *storage.SQLiteRepository, date time.Time, values core.RateValues) core.ExchangeRate {
	t.Helper()
	rate, err := store.CreateExchangeRate(context.Background(), storage.CreateExchangeRateParams{
		EffectiveDate: date,
		Rates:         values,
	})
	if err != nil {
		t.Fatalf("CreateExchangeRate() error = %v", err)
	}
	return rate
}

// fakeFetcher counts calls so tests can assert the daily-refresh policy
// never fetches twice for the same day.
type fakeFetcher struct {
	values core.RateValues
	err    error
	calls  int
}

func (f *fakeFetcher) FetchDaily(ctx context.Context) (core.RateValues, json.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return core.RateValues{}, nil, f.err
	}
	return f.values, json.RawMessage(`{"fake":true}`), nil
}
