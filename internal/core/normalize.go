// Package core defines the ledger domain: accounts, transactions and the
// currency normalization rule that converts transaction amounts into the
// base currency. No rounding is applied anywhere; amounts keep full
// floating precision through storage, and display rounding is left to
// the presentation side.
package core

import "math"

// Normalize converts amount in the given currency to base-currency (ILS)
// units. For ILS the amount passes through untouched. For USD the supplied
// rate is the multiplicative factor captured at recording time; it must be
// positive and finite.
func Normalize(amount float64, currency Currency, rate float64) (float64, error) {
	switch currency {
	case ILS:
		return amount, nil
	case USD:
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return 0, ErrInvalidRate
		}
		return amount * rate, nil
	default:
		return 0, ErrUnknownCurrency
	}
}

// BaseAmount returns the transaction amount expressed in ILS using the
// rate stored on the transaction. A USD transaction without a usable rate
// falls back to the raw amount, mirroring how already-recorded data is
// charted: recording-time validation prevents that case for new entries.
func (t Transaction) BaseAmount() float64 {
	if t.Currency == USD && t.ExchangeRate > 0 {
		return t.Amount * t.ExchangeRate
	}
	return t.Amount
}
