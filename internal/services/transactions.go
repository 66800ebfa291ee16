package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aikirias/FinTrack/internal/core"
	"github.com/aikirias/FinTrack/internal/storage"
)

// TransactionService is the write path: every create and update resolves
// rates and runs the conversion engine before anything is persisted, so the
// three derived amounts are never edited independently.
type TransactionService struct {
	store *storage.SQLiteRepository
	rates *RateService
}

func NewTransactionService(store *storage.SQLiteRepository, rates *RateService) *TransactionService {
	return &TransactionService{store: store, rates: rates}
}

type TransactionInput struct {
	AccountID      int64
	CategoryID     *int64
	SubcategoryID  *int64
	Date           time.Time
	Currency       core.Currency
	RateType       core.RateType
	Amount         decimal.Decimal
	Notes          string
	ExchangeRateID *int64           // use this stored quote
	Override       *core.RateValues // or these ad-hoc rates; wins over the quote
}

func (s *TransactionService) Create(ctx context.Context, userID int64, in TransactionInput) (core.Transaction, error) {
	if err := s.validateRefs(ctx, userID, in); err != nil {
		return core.Transaction{}, err
	}

	quote, values, err := s.rates.Pick(ctx, in.ExchangeRateID, in.Override, true)
	if err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		UserID:         userID,
		AccountID:      in.AccountID,
		CategoryID:     in.CategoryID,
		SubcategoryID:  in.SubcategoryID,
		Date:           in.Date.UTC(),
		Currency:       in.Currency,
		RateType:       in.RateType,
		AmountOriginal: in.Amount,
		Notes:          in.Notes,
	}
	if quote != nil {
		t.ExchangeRateID = &quote.ID
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	amounts, err := core.Convert(in.Amount, in.Currency, values, in.RateType)
	if err != nil {
		return core.Transaction{}, err
	}
	t.AmountARS, t.AmountUSD, t.AmountBTC = amounts.ARS, amounts.USD, amounts.BTC

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", created.ID,
		"user_id", userID,
		"currency", string(created.Currency),
		"amount", created.AmountOriginal.String())
	return created, nil
}

// Update replaces the transaction's attributes and recomputes the derived
// amounts from the newly resolved rates.
func (s *TransactionService) Update(ctx context.Context, userID, id int64, in TransactionInput) (core.Transaction, error) {
	existing, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.validateRefs(ctx, userID, in); err != nil {
		return core.Transaction{}, err
	}

	quoteID := in.ExchangeRateID
	if quoteID == nil && in.Override == nil {
		// No explicit rate requested: stay on the quote the row already has.
		quoteID = existing.ExchangeRateID
	}
	quote, values, err := s.rates.Pick(ctx, quoteID, in.Override, true)
	if err != nil {
		return core.Transaction{}, err
	}

	existing.AccountID = in.AccountID
	existing.CategoryID = in.CategoryID
	existing.SubcategoryID = in.SubcategoryID
	existing.Date = in.Date.UTC()
	existing.Currency = in.Currency
	existing.RateType = in.RateType
	existing.AmountOriginal = in.Amount
	existing.Notes = in.Notes
	existing.ExchangeRateID = nil
	if quote != nil {
		existing.ExchangeRateID = &quote.ID
	}
	if err := existing.Validate(); err != nil {
		return core.Transaction{}, err
	}

	amounts, err := core.Convert(in.Amount, in.Currency, values, in.RateType)
	if err != nil {
		return core.Transaction{}, err
	}
	existing.AmountARS, existing.AmountUSD, existing.AmountBTC = amounts.ARS, amounts.USD, amounts.BTC

	return s.store.UpdateTransaction(ctx, existing)
}

func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteTransaction(ctx, userID, id)
}

func (s *TransactionService) Get(ctx context.Context, userID, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) List(ctx context.Context, arg storage.ListTransactionsParams) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, arg)
}

// validateRefs checks that the referenced account and category tree belong
// to the user and hang together: a subcategory must have a parent, and when
// a category is also given, the subcategory must be its child.
func (s *TransactionService) validateRefs(ctx context.Context, userID int64, in TransactionInput) error {
	ok, err := s.store.AccountExists(ctx, userID, in.AccountID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("account %d: %w", in.AccountID, core.ErrNotFound)
	}

	if in.CategoryID == nil && in.SubcategoryID == nil {
		return nil
	}

	if in.CategoryID != nil {
		if _, err := s.store.GetCategory(ctx, userID, *in.CategoryID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("category %d: %w", *in.CategoryID, core.ErrNotFound)
			}
			return err
		}
	}
	if in.SubcategoryID != nil {
		sub, err := s.store.GetCategory(ctx, userID, *in.SubcategoryID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("subcategory %d: %w", *in.SubcategoryID, core.ErrNotFound)
			}
			return err
		}
		if sub.ParentID == nil {
			return fmt.Errorf("%w: subcategory must have a parent category", core.ErrValidation)
		}
		if in.CategoryID != nil && *sub.ParentID != *in.CategoryID {
			return fmt.Errorf("%w: subcategory does not belong to the given category", core.ErrValidation)
		}
	}
	return nil
}
