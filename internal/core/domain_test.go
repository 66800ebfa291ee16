package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in      string
		want    Currency
		wantErr bool
	}{
		{"ARS", ARS, false},
		{"usd", USD, false},
		{" btc ", BTC, false},
		{"EUR", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCurrency(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedCurrency) {
				t.Errorf("ParseCurrency(%q) error = %v, want ErrUnsupportedCurrency", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseCurrency(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestParseRateTypeDefaultsToOfficial(t *testing.T) {
	got, err := ParseRateType("")
	if err != nil || got != RateOfficial {
		t.Fatalf("ParseRateType(\"\") = %v, %v, want official", got, err)
	}
	if _, err := ParseRateType("parallel"); !errors.Is(err, ErrUnsupportedRateType) {
		t.Errorf("error = %v, want ErrUnsupportedRateType", err)
	}
}

func TestRateValuesValidate(t *testing.T) {
	valid := testRates()
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	noBlue := valid
	noBlue.USDARSBlue = decimal.NullDecimal{}
	if err := noBlue.Validate(); err != nil {
		t.Errorf("Validate() without blue rate error = %v", err)
	}

	zeroOfficial := valid
	zeroOfficial.USDARSOfficial = decimal.Zero
	if err := zeroOfficial.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("zero official: error = %v, want ErrValidation", err)
	}

	negBlue := valid
	negBlue.USDARSBlue = decimal.NullDecimal{Decimal: dec("-1"), Valid: true}
	if err := negBlue.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("negative blue: error = %v, want ErrValidation", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	base := Transaction{
		Date:           time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Currency:       USD,
		RateType:       RateOfficial,
		AmountOriginal: dec("10"),
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	zeroAmount := base
	zeroAmount.AmountOriginal = decimal.Zero
	if err := zeroAmount.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount: error = %v, want ErrInvalidAmount", err)
	}

	badCurrency := base
	badCurrency.Currency = "EUR"
	if err := badCurrency.Validate(); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Errorf("bad currency: error = %v, want ErrUnsupportedCurrency", err)
	}
}

func TestMonthStart(t *testing.T) {
	in := time.Date(2025, 3, 17, 15, 4, 5, 0, time.UTC)
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := MonthStart(in); !got.Equal(want) {
		t.Errorf("MonthStart() = %v, want %v", got, want)
	}
}
