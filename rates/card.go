/*
card.go - Rate card parsing and per-employee cost lookup

PURPOSE:
  Parses a rate-card table ("TSR file": code, name, and one money column per
  currency) and resolves an employee's monthly cost in USD.

CODE MATCHING:
  Rate codes in rosters are messy: "102", "102 B", " 102 ". Only the leading
  numeric token is significant; "102 B" matches card code 102.
*/
package rates

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE CARD
// =============================================================================

// Entry is one rate-card row: a code, a display name, and the cost amount in
// each currency the card carries.
type Entry struct {
	Code    int
	Name    string
	Amounts map[Currency]decimal.Decimal
}

// Card is a parsed rate card, indexed by code.
type Card struct {
	entries    map[int]Entry
	currencies []Currency
}

// NewCard builds a card from entries. Later duplicates of a code are ignored.
func NewCard(entries []Entry) *Card {
	c := &Card{entries: make(map[int]Entry, len(entries))}
	seen := make(map[Currency]bool)
	for _, e := range entries {
		if _, dup := c.entries[e.Code]; dup {
			continue
		}
		c.entries[e.Code] = e
		for cur := range e.Amounts {
			if !seen[cur] {
				seen[cur] = true
				c.currencies = append(c.currencies, cur)
			}
		}
	}
	return c
}

// Currencies returns the money columns present on the card.
func (c *Card) Currencies() []Currency { return c.currencies }

// Len returns the number of entries.
func (c *Card) Len() int { return len(c.entries) }

// ParseCode extracts the numeric rate code from a raw roster cell.
// Returns false for blank or non-numeric values.
func ParseCode(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Cost is the resolved cost for one employee.
type Cost struct {
	AmountUSD decimal.Decimal
	CardName  string
	Currency  Currency
}

// Lookup resolves an employee's monthly cost in USD.
//
// The employee's deputation picks the cost country (OFFSHORE uses the
// engagement's offshore country), the country picks the currency column, and
// the exchange rate converts to USD rounded to 2 decimals. Every miss along
// the way degrades to a zero cost.
func (c *Card) Lookup(rawCode, deputation string, offshore Country, fx ExchangeRates) Cost {
	code, ok := ParseCode(rawCode)
	if !ok {
		return Cost{}
	}
	entry, ok := c.entries[code]
	if !ok {
		return Cost{}
	}

	country := CountryForDeputation(deputation, offshore)
	currency := CurrencyForCountry(country)

	local, ok := entry.Amounts[currency]
	if !ok {
		return Cost{CardName: entry.Name, Currency: currency}
	}

	usd := local.Mul(fx.RateFor(currency)).Round(2)
	return Cost{AmountUSD: usd, CardName: entry.Name, Currency: currency}
}

// =============================================================================
// TABLE PARSING
// =============================================================================

// ParseCardTable builds a Card from a raw table. The header must contain
// "TSR Code" and "TSR Name" (matched case-insensitively after trimming);
// every other column is treated as a currency money column. Rows whose code
// is not numeric are skipped.
func ParseCardTable(header []string, rows [][]string) (*Card, error) {
	codeIdx, nameIdx := -1, -1
	type moneyCol struct {
		idx int
		cur Currency
	}
	var moneyCols []moneyCol

	for i, cell := range header {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "tsr code", "tsr":
			if codeIdx < 0 {
				codeIdx = i
			}
		case "tsr name":
			if nameIdx < 0 {
				nameIdx = i
			}
		default:
			cur := Currency(strings.ToUpper(strings.TrimSpace(cell)))
			if cur != "" {
				moneyCols = append(moneyCols, moneyCol{idx: i, cur: cur})
			}
		}
	}
	if codeIdx < 0 || nameIdx < 0 {
		return nil, ErrBadCardHeader
	}

	var entries []Entry
	for _, row := range rows {
		get := func(i int) string {
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		code, ok := ParseCode(get(codeIdx))
		if !ok {
			continue
		}
		e := Entry{Code: code, Name: get(nameIdx), Amounts: make(map[Currency]decimal.Decimal)}
		for _, mc := range moneyCols {
			raw := get(mc.idx)
			if raw == "" {
				continue
			}
			if v, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "")); err == nil {
				e.Amounts[mc.cur] = v
			}
		}
		entries = append(entries, e)
	}
	return NewCard(entries), nil
}
