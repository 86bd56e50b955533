package domain

import "strings"

// CurrencyCode is a 3-letter ISO-style currency code, e.g. "XOF" or "EUR".
type CurrencyCode string

// BaseCurrency is the currency in which backend amounts are expressed absent
// other information. It is also the zero-decimal display currency.
const BaseCurrency CurrencyCode = "XOF"

// Normalize upper-cases and trims the code.
func (c CurrencyCode) Normalize() CurrencyCode {
	return CurrencyCode(strings.ToUpper(strings.TrimSpace(string(c))))
}

// IsWellFormed reports whether the code is three ASCII letters.
func (c CurrencyCode) IsWellFormed() bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// RateTable maps currency codes to their exchange rate relative to the base
// currency. The base currency is always present, mapped to 1.
type RateTable map[CurrencyCode]float64

// Rate returns the rate for code, falling back to 1 for unknown codes or
// non-positive entries so conversion never divides by zero.
func (t RateTable) Rate(code CurrencyCode) float64 {
	if r, ok := t[code.Normalize()]; ok && r > 0 {
		return r
	}
	return 1
}

// Normalized returns a copy with upper-cased keys, non-positive entries
// dropped and the base currency guaranteed at rate 1.
func (t RateTable) Normalized(base CurrencyCode) RateTable {
	out := make(RateTable, len(t)+1)
	for code, rate := range t {
		if rate > 0 {
			out[code.Normalize()] = rate
		}
	}
	out[base.Normalize()] = 1
	return out
}

// SeedRates is the built-in table used before the first successful refresh.
// It is replaced wholesale by backend rates and only has to be plausible
// enough to keep formatting working offline.
func SeedRates() RateTable {
	return RateTable{
		"XOF": 1,
		"EUR": 0.0015,
		"USD": 0.0017,
		"GBP": 0.0013,
		"NGN": 2.55,
	}
}
