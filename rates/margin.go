/*
margin.go - Delivered gross margin (DGM)

PURPOSE:
  DGM is billed revenue minus seat cost. The percentage form is what the
  review dashboard shows: how much of each billed dollar the engagement
  keeps.
*/
package rates

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrBadCardHeader is returned when a rate-card table lacks the code or name
// column.
var ErrBadCardHeader = errors.New("rate card missing TSR Code or TSR Name column")

// Margin is the DGM pair for one row.
type Margin struct {
	DGM        decimal.Decimal // billing - cost
	DGMPercent decimal.Decimal // 0 when billing is 0
}

var hundred = decimal.NewFromInt(100)

// ComputeMargin derives DGM from billed revenue and total cost, both in the
// same currency. Percent is rounded to 2 decimals.
func ComputeMargin(billing, cost decimal.Decimal) Margin {
	dgm := billing.Sub(cost)
	if billing.IsZero() {
		return Margin{DGM: dgm}
	}
	return Margin{
		DGM:        dgm,
		DGMPercent: dgm.Div(billing).Mul(hundred).Round(2),
	}
}
