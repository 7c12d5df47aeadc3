// Package pricing composes the recurring and one-time cost of a storefront
// checkout from the selected plan price and the service line items.
//
// Everything in this package is pure: no I/O, no clocks, no errors. Inputs
// outside their valid range saturate to the nearest boundary.
package pricing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Money is an amount in cents.
type Money int64

// FromFloat converts a decimal currency amount (as the plan catalog sends it)
// to cents. NaN, infinities and negative amounts saturate to zero.
func FromFloat(f float64) Money {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if math.IsInf(f, 1) || f*100 >= math.MaxInt64 {
		return Money(math.MaxInt64)
	}
	return Money(math.Round(f * 100))
}

// Float returns the amount in currency units.
func (m Money) Float() float64 {
	return float64(m) / 100
}

func (m Money) String() string {
	return strconv.FormatFloat(m.Float(), 'f', 2, 64)
}

// Quantity is a non-negative item count entered by the user. It decodes from
// JSON numbers and numeric strings; anything else decodes as zero.
type Quantity int

// maxQuantity bounds decoded values before any per-item clamp.
const maxQuantity = math.MaxInt32

// ParseQuantity coerces free-form input to a Quantity.
func ParseQuantity(s string) Quantity {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return quantityFromFloat(f)
}

func quantityFromFloat(f float64) Quantity {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= maxQuantity {
		return maxQuantity
	}
	return Quantity(math.Trunc(f))
}

// UnmarshalJSON never fails: malformed input is treated as zero.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*q = 0
		return nil //nolint:nilerr // malformed input saturates to zero
	}

	switch x := v.(type) {
	case float64:
		*q = quantityFromFloat(x)
	case string:
		*q = ParseQuantity(x)
	default:
		*q = 0
	}
	return nil
}

// Schema widens the OpenAPI type so request validation hands any scalar to
// UnmarshalJSON instead of rejecting non-integers.
func (Quantity) Schema(huma.Registry) *huma.Schema {
	variants := []*huma.Schema{
		{Type: huma.TypeNumber},
		{Type: huma.TypeString},
		{Type: huma.TypeBoolean},
	}
	for _, v := range variants {
		v.PrecomputeMessages()
	}
	return &huma.Schema{
		OneOf:       variants,
		Description: "Item count. Numeric strings are parsed; anything else counts as zero.",
	}
}

// Clamp limits q to [0, upper].
func (q Quantity) Clamp(upper int) Quantity {
	if q < 0 {
		return 0
	}
	if upper >= 0 && int(q) > upper {
		return Quantity(upper)
	}
	return q
}
