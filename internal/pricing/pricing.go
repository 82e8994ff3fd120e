// Package pricing computes effective prices, subtotals, tax and totals.
//
// All amounts are whole currency units held in int64. Only the tax rate is
// fractional, and tax is computed with decimal arithmetic and rounded once per
// cart, so totals never accumulate floating-point error.
package pricing

import (
	"errors"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the canonical rate used when none is configured.
var DefaultTaxRate = decimal.RequireFromString("0.10")

var ErrInvalidTaxRate = errors.New("tax rate must be in [0, 1)")

// Line is one (product, quantity) pairing.
type Line struct {
	Product  model.Product
	Quantity int64
}

// EffectivePrice returns the discount price when it is set and below the list
// price, otherwise the list price.
func EffectivePrice(p model.Product) int64 {
	if p.HasDiscount() {
		return *p.DiscountPrice
	}
	return p.Price
}

func LineSubtotal(l Line) int64 {
	return EffectivePrice(l.Product) * l.Quantity
}

func CartTotal(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += LineSubtotal(l)
	}
	return total
}

func ItemCount(lines []Line) int64 {
	var n int64
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// Calculator applies one tax rate to every computation it performs.
type Calculator struct {
	rate decimal.Decimal
}

func NewCalculator(rate decimal.Decimal) (Calculator, error) {
	if err := ValidateTaxRate(rate); err != nil {
		return Calculator{}, err
	}
	return Calculator{rate: rate}, nil
}

// MustCalculator panics on an invalid rate. Intended for constants and tests.
func MustCalculator(rate decimal.Decimal) Calculator {
	c, err := NewCalculator(rate)
	if err != nil {
		panic(err)
	}
	return c
}

func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return ErrInvalidTaxRate
	}
	return nil
}

func (c Calculator) TaxRate() decimal.Decimal {
	return c.rate
}

// TaxAmount rounds half away from zero to whole units.
func (c Calculator) TaxAmount(subtotal int64) int64 {
	return decimal.NewFromInt(subtotal).Mul(c.rate).Round(0).IntPart()
}

func (c Calculator) FinalTotal(lines []Line) int64 {
	subtotal := CartTotal(lines)
	return subtotal + c.TaxAmount(subtotal)
}

type Summary struct {
	Subtotal  int64           `json:"subtotal"`
	Tax       int64           `json:"tax"`
	Total     int64           `json:"total"`
	TaxRate   decimal.Decimal `json:"taxRate"`
	ItemCount int64           `json:"itemCount"`
}

func (c Calculator) Summarize(lines []Line) Summary {
	subtotal := CartTotal(lines)
	tax := c.TaxAmount(subtotal)
	return Summary{
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     subtotal + tax,
		TaxRate:   c.rate,
		ItemCount: ItemCount(lines),
	}
}

// SummarizeSnapshot totals order lines whose unit price is already frozen.
func (c Calculator) SummarizeSnapshot(items []model.OrderItem) Summary {
	var subtotal, count int64
	for _, it := range items {
		subtotal += it.Price * it.Quantity
		count += it.Quantity
	}
	tax := c.TaxAmount(subtotal)
	return Summary{
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     subtotal + tax,
		TaxRate:   c.rate,
		ItemCount: count,
	}
}
