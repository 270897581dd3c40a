/*
Package rates provides cost-rate card lookups, currency conversion, and
gross-margin calculation.

PURPOSE:
  A cost-rate card lists, per rate code, the internal cost of a seat in one
  or more local currencies. This package resolves an employee's cost in USD
  from their rate code and deputation, and derives the delivered gross
  margin (DGM) against billed revenue.

KEY CONCEPTS IN THIS FILE (types.go):
  - Currency / Country: Lookup keys for the card's money columns
  - Deputation routing: ONSITE bills from the USA, NEARSHORE from India,
    OFFSHORE from a configurable country (default Mexico)
  - ExchangeRates: Multipliers into USD (1 local = X USD)

FAILURE MODEL:
  Rate-card lookups never fail hard. A missing or malformed code, an unknown
  deputation, or an absent currency column all resolve to a zero cost; the
  billing run continues without margin data for that row.

SEE ALSO:
  - card.go: Card parsing and per-employee lookup
  - margin.go: DGM columns
*/
package rates

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CURRENCIES AND COUNTRIES
// =============================================================================

type Currency string

const (
	USD Currency = "USD"
	INR Currency = "INR"
	MXN Currency = "MXN"
	PHP Currency = "PHP"
	PLN Currency = "PLN"
	CAD Currency = "CAD"
	BRL Currency = "BRL"
	ARS Currency = "ARS"
)

type Country string

const (
	CountryUSA         Country = "USA"
	CountryIndia       Country = "India"
	CountryMexico      Country = "Mexico"
	CountryPhilippines Country = "Philippines"
	CountryPoland      Country = "Poland"
	CountryCanada      Country = "Canada"
	CountryBrazil      Country = "Brazil"
	CountryArgentina   Country = "Argentina"
)

// CurrencyForCountry maps billing countries to their local currency.
// Unknown countries bill in USD.
func CurrencyForCountry(c Country) Currency {
	switch c {
	case CountryIndia:
		return INR
	case CountryMexico:
		return MXN
	case CountryPhilippines:
		return PHP
	case CountryPoland:
		return PLN
	case CountryCanada:
		return CAD
	case CountryBrazil:
		return BRL
	case CountryArgentina:
		return ARS
	default:
		return USD
	}
}

// CountryForDeputation routes a deputation category to its cost country.
// ONSITE and NEARSHORE are fixed; OFFSHORE is chosen per engagement.
func CountryForDeputation(deputation string, offshore Country) Country {
	switch strings.ToUpper(strings.TrimSpace(deputation)) {
	case "ONSITE":
		return CountryUSA
	case "NEARSHORE":
		return CountryIndia
	case "OFFSHORE":
		if offshore != "" {
			return offshore
		}
		return CountryMexico
	default:
		return CountryUSA
	}
}

// =============================================================================
// EXCHANGE RATES
// =============================================================================

// ExchangeRates maps currencies to their multiply-style USD rate
// (1 local currency = X USD). USD is always 1.
type ExchangeRates map[Currency]decimal.Decimal

// DefaultExchangeRates returns the fallback rates used when the caller
// supplies none.
func DefaultExchangeRates() ExchangeRates {
	return ExchangeRates{
		INR: decimal.RequireFromString("0.012"),
		MXN: decimal.RequireFromString("0.058"),
		USD: decimal.NewFromInt(1),
	}
}

// RateFor returns the USD multiplier for a currency, defaulting to 1 when
// the currency is not configured.
func (r ExchangeRates) RateFor(c Currency) decimal.Decimal {
	if v, ok := r[c]; ok {
		return v
	}
	return decimal.NewFromInt(1)
}

// ConversionMethod describes how a user entered an exchange rate.
type ConversionMethod string

const (
	// ConvertMultiply: the entered value is already 1 local = X USD.
	ConvertMultiply ConversionMethod = "multiply"
	// ConvertDivide: the entered value is 1 USD = X local; it is inverted.
	ConvertDivide ConversionMethod = "divide"
)

// NormalizeRate converts a user-entered exchange rate into multiply form.
// A zero divide-style rate normalizes to zero rather than dividing.
func NormalizeRate(value decimal.Decimal, method ConversionMethod) decimal.Decimal {
	if method == ConvertDivide {
		if value.IsZero() {
			return decimal.Zero
		}
		return decimal.NewFromInt(1).Div(value)
	}
	return value
}
