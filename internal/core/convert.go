// Package core holds the FinTrack domain model and the currency conversion
// engine. Everything in here is pure: no I/O, no clocks, no storage.
package core

import "github.com/shopspring/decimal"

// amountScale is the number of fractional digits every derived amount is
// rounded to. Rounding happens exactly once, after the arithmetic.
const amountScale = 8

// Amounts carries one transaction amount expressed in all three units.
type Amounts struct {
	ARS decimal.Decimal
	USD decimal.Decimal
	BTC decimal.Decimal
}

// Convert derives the ARS, USD and BTC equivalents of amount, which is
// denominated in currency, using the given rates.
//
// When rateType is blue but the quote has no blue rate, the official rate is
// used without error: transactions tagged blue stay convertible against
// quotes that predate blue tracking.
func Convert(amount decimal.Decimal, currency Currency, rates RateValues, rateType RateType) (Amounts, error) {
	usdARS := rates.USDARSOfficial
	if rateType == RateBlue && rates.USDARSBlue.Valid {
		usdARS = rates.USDARSBlue.Decimal
	}

	var out Amounts
	switch currency {
	case ARS:
		out.ARS = amount
		out.USD = amount.Div(usdARS)
		out.BTC = amount.Div(rates.BTCARS)
	case USD:
		out.USD = amount
		out.ARS = amount.Mul(usdARS)
		out.BTC = amount.Div(rates.BTCUSD)
	case BTC:
		out.BTC = amount
		out.USD = amount.Mul(rates.BTCUSD)
		out.ARS = amount.Mul(rates.BTCARS)
	default:
		return Amounts{}, ErrUnsupportedCurrency
	}

	// decimal.Round is half away from zero, i.e. half-up for the positive
	// and symmetric for the negative amounts stored here.
	out.ARS = out.ARS.Round(amountScale)
	out.USD = out.USD.Round(amountScale)
	out.BTC = out.BTC.Round(amountScale)
	return out, nil
}
