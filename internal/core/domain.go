package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ARS Currency = "ARS"
	USD Currency = "USD"
	BTC Currency = "BTC"
)

const (
	RateOfficial RateType = "official"
	RateBlue     RateType = "blue"
)

const (
	Income   CategoryType = "income"
	Expense  CategoryType = "expense"
	Transfer CategoryType = "transfer"
)

type (
	Currency     string
	RateType     string
	CategoryType string

	// RateValues is the value-only projection of an ExchangeRate: the four
	// rates without identity. Callers supply it directly when overriding
	// stored quotes.
	RateValues struct {
		USDARSOfficial decimal.Decimal
		USDARSBlue     decimal.NullDecimal
		BTCUSD         decimal.Decimal
		BTCARS         decimal.Decimal
	}

	// ExchangeRate is a stored quote: one set of rates per effective date
	// and source. Manual quotes are never produced by the daily refresh.
	ExchangeRate struct {
		ID            int64
		EffectiveDate time.Time // date precision, midnight UTC
		Source        string    // empty when no provider reference
		Rates         RateValues
		IsManual      bool
		RawPayload    string // provider response kept verbatim for audit
		CreatedAt     time.Time
	}

	Transaction struct {
		ID             int64
		UserID         int64
		AccountID      int64
		CategoryID     *int64
		SubcategoryID  *int64
		ExchangeRateID *int64 // nil when amounts came from an override
		Date           time.Time
		Currency       Currency
		RateType       RateType
		AmountOriginal decimal.Decimal
		AmountARS      decimal.Decimal
		AmountUSD      decimal.Decimal
		AmountBTC      decimal.Decimal
		Notes          string
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	// Category nodes reference their parent by id only; children are
	// derived by lookup, never stored as owning links.
	Category struct {
		ID       int64
		UserID   int64
		Name     string
		Type     CategoryType
		ParentID *int64
	}

	Budget struct {
		ID       int64
		UserID   int64
		Month    time.Time // first day of the month
		Currency Currency
		Name     string
		Items    []BudgetItem
	}

	BudgetItem struct {
		ID         int64
		BudgetID   int64
		CategoryID int64
		Amount     decimal.Decimal
	}
)

var (
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrUnsupportedRateType = errors.New("unsupported rate type")
	ErrUnsupportedInterval = errors.New("unsupported interval")
	ErrUnsupportedType     = errors.New("unsupported category type")
	ErrNoRateAvailable     = errors.New("no exchange rate available")
	ErrDuplicateQuote      = errors.New("exchange rate already exists for that date and source")
	ErrDuplicateBudget     = errors.New("budget already exists for that month and currency")
	ErrRateFetchFailed     = errors.New("remote rate fetch failed")
	ErrEmptyFilter         = errors.New("reprocess filter is empty")
	ErrInvalidRange        = errors.New("invalid date range")
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("invalid amount")

	// ErrValidation wraps every rejected-input condition that has no more
	// specific sentinel of its own.
	ErrValidation = errors.New("validation failed")
)

// ParseCurrency validates a currency code against the closed set of
// supported units. Matching is case-insensitive.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case ARS:
		return ARS, nil
	case USD:
		return USD, nil
	case BTC:
		return BTC, nil
	}
	return "", ErrUnsupportedCurrency
}

// ParseRateType validates the official/blue selector. Empty defaults to
// official.
func ParseRateType(s string) (RateType, error) {
	switch RateType(strings.ToLower(strings.TrimSpace(s))) {
	case RateOfficial, "":
		return RateOfficial, nil
	case RateBlue:
		return RateBlue, nil
	}
	return "", ErrUnsupportedRateType
}

// ParseCategoryType validates the closed income/expense/transfer set.
func ParseCategoryType(s string) (CategoryType, error) {
	switch CategoryType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	case Transfer:
		return Transfer, nil
	}
	return "", ErrUnsupportedType
}

func (v RateValues) Validate() error {
	if !v.USDARSOfficial.IsPositive() {
		return fmt.Errorf("%w: official USD/ARS rate must be positive", ErrValidation)
	}
	if v.USDARSBlue.Valid && !v.USDARSBlue.Decimal.IsPositive() {
		return fmt.Errorf("%w: blue USD/ARS rate must be positive", ErrValidation)
	}
	if !v.BTCUSD.IsPositive() {
		return fmt.Errorf("%w: BTC/USD rate must be positive", ErrValidation)
	}
	if !v.BTCARS.IsPositive() {
		return fmt.Errorf("%w: BTC/ARS rate must be positive", ErrValidation)
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return fmt.Errorf("%w: transaction date cannot be zero", ErrValidation)
	}
	if _, err := ParseCurrency(string(t.Currency)); err != nil {
		return err
	}
	if _, err := ParseRateType(string(t.RateType)); err != nil {
		return err
	}
	if t.AmountOriginal.IsZero() {
		return ErrInvalidAmount
	}
	if len(t.Notes) > 500 {
		return fmt.Errorf("%w: notes too long (max 500 characters)", ErrValidation)
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Month.IsZero() {
		return fmt.Errorf("%w: budget month cannot be zero", ErrValidation)
	}
	if b.Month.Day() != 1 {
		return fmt.Errorf("%w: budget month must be the first day of a month", ErrValidation)
	}
	if _, err := ParseCurrency(string(b.Currency)); err != nil {
		return err
	}
	if len(b.Items) == 0 {
		return fmt.Errorf("%w: budget must have at least one item", ErrValidation)
	}
	for _, item := range b.Items {
		if !item.Amount.IsPositive() {
			return ErrInvalidAmount
		}
	}
	return nil
}

// MonthStart truncates a timestamp to the first day of its month, UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates a timestamp to its calendar day, UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
