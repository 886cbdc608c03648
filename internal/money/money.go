// Package money computes document totals from line items and document-level
// modifiers. All amounts are integer minor units (cents). Arithmetic runs in
// float64 and is rounded once per output field, never per line, so reordering
// or splitting lines cannot introduce rounding drift.
package money

import "math"

// DiscountKind selects how Discount.Value is interpreted.
type DiscountKind string

const (
	DiscountPercent DiscountKind = "percentage"
	DiscountFixed   DiscountKind = "fixed"
)

// Discount is a document-level discount. Value is a percentage in [0,100]
// for DiscountPercent, or an absolute minor-unit amount for DiscountFixed.
type Discount struct {
	Kind  DiscountKind
	Value float64
}

// Line is the calculator's view of a line item.
type Line struct {
	Quantity   float64
	UnitAmount int64
}

// Totals is the full monetary breakdown of a document.
type Totals struct {
	Subtotal           int64
	DiscountAmount     int64
	DiscountedSubtotal int64
	Tax                int64
	Total              int64
	TotalDue           int64

	// Deficit reports that the deposit already paid exceeds the total.
	// TotalDue floors at zero for display; the caller decides how to
	// surface the data-entry error.
	Deficit bool
}

// Calculate derives subtotal, discount, tax, total and amount due. It is the
// single source of monetary truth: every document type and every public view
// must go through it so the payer sees exactly what is charged.
func Calculate(items []Line, discount Discount, taxRate float64, depositPaid int64) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Quantity * float64(item.UnitAmount)
	}

	discountAmount := discountValue(discount, subtotal)
	if discountAmount < 0 {
		discountAmount = 0
	}
	if discountAmount > subtotal {
		discountAmount = subtotal
	}
	if taxRate < 0 {
		taxRate = 0
	}

	t := Totals{
		Subtotal:       round(subtotal),
		DiscountAmount: round(discountAmount),
	}
	t.DiscountedSubtotal = t.Subtotal - t.DiscountAmount
	t.Tax = round(float64(t.DiscountedSubtotal) * taxRate / 100)
	t.Total = t.DiscountedSubtotal + t.Tax

	due := t.Total - depositPaid
	if due < 0 {
		t.Deficit = true
		due = 0
	}
	t.TotalDue = due

	return t
}

// LineTotal is the display amount of a single line, rounded at the boundary.
func LineTotal(quantity float64, unitAmount int64) int64 {
	return round(quantity * float64(unitAmount))
}

func discountValue(d Discount, subtotal float64) float64 {
	switch d.Kind {
	case DiscountPercent:
		return subtotal * d.Value / 100
	case DiscountFixed:
		return d.Value
	default:
		return 0
	}
}

func round(v float64) int64 {
	return int64(math.Round(v))
}
