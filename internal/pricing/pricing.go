// Package pricing implements POS cart arithmetic on integer minor currency units.
package pricing

import (
	"math"
	"strconv"
	"strings"
)

// DefaultTaxPercent is the flat sales tax rate.
const DefaultTaxPercent = 18

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	DiscountNone       DiscountType = ""
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Item is one cart line. Price is in minor units.
type Item struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Kind           string `json:"kind,omitempty"` // "service" or "product"
	Price          int64  `json:"price"`
	Quantity       int    `json:"quantity"`
	AssignedPerson string `json:"assigned_person,omitempty"`
}

// LineTotal returns price times quantity.
func (i Item) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Quote is the priced breakdown of a cart.
type Quote struct {
	Subtotal      int64 `json:"subtotal"`
	Discount      int64 `json:"discount"`
	AfterDiscount int64 `json:"after_discount"`
	Tax           int64 `json:"tax"`
	Total         int64 `json:"total"`
}

// Calculator prices carts with a configurable tax rate.
type Calculator struct {
	TaxPercent int64
}

// NewCalculator returns a calculator; a non-positive rate selects the default.
func NewCalculator(taxPercent int64) Calculator {
	if taxPercent <= 0 {
		taxPercent = DefaultTaxPercent
	}
	return Calculator{TaxPercent: taxPercent}
}

// Subtotal sums price times quantity over items.
func Subtotal(items []Item) int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

// Discount converts a user-entered discount into minor units.
// Percentages are clamped to [0, 100]; fixed amounts are given in major
// units and clamped to [0, subtotal]. Unparseable values mean no discount.
func Discount(subtotal int64, kind DiscountType, value string) int64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	switch kind {
	case DiscountPercentage:
		pct := math.Min(math.Max(v, 0), 100)
		return int64(math.Round(float64(subtotal) * pct / 100))
	case DiscountFixed:
		if v <= 0 {
			return 0
		}
		if v*100 >= float64(subtotal) {
			return subtotal
		}
		return int64(math.Round(v * 100))
	}
	return 0
}

// Tax returns amount times the tax rate, rounded half up.
func (c Calculator) Tax(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	return (amount*c.TaxPercent + 50) / 100
}

// Quote prices items with the given discount.
func (c Calculator) Quote(items []Item, kind DiscountType, value string) Quote {
	subtotal := Subtotal(items)
	discount := Discount(subtotal, kind, value)
	after := subtotal - discount
	tax := c.Tax(after)
	return Quote{
		Subtotal:      subtotal,
		Discount:      discount,
		AfterDiscount: after,
		Tax:           tax,
		Total:         after + tax,
	}
}

// FormatMinor renders minor units as a major-unit decimal string.
func FormatMinor(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + strconv.FormatInt(amount/100, 10) + "." + twoDigits(amount%100)
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
