package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aikirias/FinTrack/internal/core"
	"github.com/aikirias/FinTrack/internal/storage"
)

func seedTransaction(t *testing.T, store *storage.SQLiteRepository, userID, accountID int64, date time.Time, quoteID *int64) core.Transaction {
	t.Helper()
	created, err := store.CreateTransaction(context.Background(), core.Transaction{
		UserID:         userID,
		AccountID:      accountID,
		ExchangeRateID: quoteID,
		Date:           date,
		Currency:       core.USD,
		RateType:       core.RateOfficial,
		AmountOriginal: dec(t, "100"),
		// Deliberately stale derived amounts.
		AmountARS: dec(t, "1"),
		AmountUSD: dec(t, "1"),
		AmountBTC: dec(t, "1"),
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	return created
}

func TestReprocessFilterValidation(t *testing.T) {
	store := newTestStore(t)
	r := NewReprocessor(store)
	userID, _ := seedUserAccount(t, store)
	ctx := context.Background()

	if _, err := r.Reprocess(ctx, userID, ReprocessFilter{}); !errors.Is(err, core.ErrEmptyFilter) {
		t.Errorf("empty filter error = %v, want ErrEmptyFilter", err)
	}

	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	if _, err := r.Reprocess(ctx, userID, ReprocessFilter{Start: &start, End: &end}); !errors.Is(err, core.ErrInvalidRange) {
		t.Errorf("inverted range error = %v, want ErrInvalidRange", err)
	}
}

func TestReprocessWithTargetQuote(t *testing.T) {
	store := newTestStore(t)
	r := NewReprocessor(store)
	userID, accountID := seedUserAccount(t, store)
	ctx := context.Background()

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	original := seedQuote(t, store, day, testRateValues(t))
	txn := seedTransaction(t, store, userID, accountID, day.Add(12*time.Hour), &original.ID)

	corrected := testRateValues(t)
	corrected.USDARSOfficial = dec(t, "1500")
	target, err := store.CreateExchangeRate(ctx, storage.CreateExchangeRateParams{
		EffectiveDate: day,
		Source:        "manual",
		Rates:         corrected,
		IsManual:      true,
	})
	if err != nil {
		t.Fatalf("create target quote error = %v", err)
	}

	result, err := r.Reprocess(ctx, userID, ReprocessFilter{ExchangeRateID: &target.ID})
	if err != nil {
		t.Fatalf("Reprocess() error = %v", err)
	}
	if result.Processed != 1 || result.Updated != 1 || result.Skipped != 0 {
		t.Fatalf("result = %+v, want processed=1 updated=1 skipped=0", result)
	}

	got, err := store.GetTransaction(ctx, userID, txn.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if !got.AmountARS.Equal(dec(t, "150000")) {
		t.Errorf("ARS = %s, want 150000 (100 USD at 1500)", got.AmountARS)
	}
	if !got.AmountOriginal.Equal(dec(t, "100")) {
		t.Errorf("original amount changed: %s", got.AmountOriginal)
	}
	if got.ExchangeRateID == nil || *got.ExchangeRateID != target.ID {
		t.Errorf("exchange rate id = %v, want %d", got.ExchangeRateID, target.ID)
	}
}

func TestReprocessMissingTargetQuote(t *testing.T) {
	store := newTestStore(t)
	r := NewReprocessor(store)
	userID, _ := seedUserAccount(t, store)

	missing := int64(12345)
	if _, err := r.Reprocess(context.Background(), userID, ReprocessFilter{ExchangeRateID: &missing}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Reprocess() error = %v, want ErrNotFound", err)
	}
}

func TestReprocessRangeUsesLinkedQuote(t *testing.T) {
	store := newTestStore(t)
	r := NewReprocessor(store)
	userID, accountID := seedUserAccount(t, store)
	ctx := context.Background()

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	quote := seedQuote(t, store, day, testRateValues(t))
	txn := seedTransaction(t, store, userID, accountID, day, &quote.ID)

	start := day.AddDate(0, 0, -1)
	end := day.AddDate(0, 0, 1)
	result, err := r.Reprocess(ctx, userID, ReprocessFilter{Start: &start, End: &end})
	if err != nil {
		t.Fatalf("Reprocess() error = %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("result = %+v, want updated=1", result)
	}

	got, err := store.GetTransaction(ctx, userID, txn.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if !got.AmountARS.Equal(dec(t, "100000")) {
		t.Errorf("ARS = %s, want 100000 (recomputed from linked quote)", got.AmountARS)
	}
	if !got.AmountBTC.Equal(dec(t, "0.002")) {
		t.Errorf("BTC = %s, want 0.002", got.AmountBTC)
	}
}

func TestReprocessSkipsOverrideBorn(t *testing.T) {
	store := newTestStore(t)
	r := NewReprocessor(store)
	userID, accountID := seedUserAccount(t, store)
	ctx := context.Background()

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	txn := seedTransaction(t, store, userID, accountID, day, nil)

	start := day
	result, err := r.Reprocess(ctx, userID, ReprocessFilter{Start: &start})
	if err != nil {
		t.Fatalf("Reprocess() error = %v", err)
	}
	if result.Processed != 1 || result.Updated != 0 || result.Skipped != 1 {
		t.Fatalf("result = %+v, want processed=1 updated=0 skipped=1", result)
	}

	got, err := store.GetTransaction(ctx, userID, txn.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if !got.AmountARS.Equal(dec(t, "1")) {
		t.Errorf("override-born row was rewritten: ARS = %s", got.AmountARS)
	}
}

func TestReprocessDeletedLinkedQuoteFallsBackToDate(t *testing.T) {
	store := newTestStore(t)
	r := NewReprocessor(store)
	userID, accountID := seedUserAccount(t, store)
	ctx := context.Background()

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	seedQuote(t, store, day, testRateValues(t))

	stale := testRateValues(t)
	stale.USDARSOfficial = dec(t, "800")
	doomed, err := store.CreateExchangeRate(ctx, storage.CreateExchangeRateParams{
		EffectiveDate: day,
		Source:        "manual",
		Rates:         stale,
		IsManual:      true,
	})
	if err != nil {
		t.Fatalf("create doomed quote error = %v", err)
	}

	txn := seedTransaction(t, store, userID, accountID, day.Add(6*time.Hour), &doomed.ID)
	if err := store.DeleteExchangeRate(ctx, doomed.ID); err != nil {
		t.Fatalf("DeleteExchangeRate() error = %v", err)
	}

	start := day
	result, err := r.Reprocess(ctx, userID, ReprocessFilter{Start: &start})
	if err != nil {
		t.Fatalf("Reprocess() error = %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("result = %+v, want updated=1", result)
	}

	got, err := store.GetTransaction(ctx, userID, txn.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if !got.AmountARS.Equal(dec(t, "100000")) {
		t.Errorf("ARS = %s, want 100000 (quote of the day)", got.AmountARS)
	}
}
