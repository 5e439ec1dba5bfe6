package model

import (
	"github.com/shopspring/decimal"
)

// =====================================================
// CALCULATION HELPERS
// =====================================================

// CalculateOrderAmounts computes the priced breakdown for a cart.
// Tax applies to the discounted subtotal, not the raw one, and is
// rounded half-up to cents. The delivery fee is flat per order.
// Returns: subtotal, discount, fee, tax, total
func CalculateOrderAmounts(
	itemsSubtotal decimal.Decimal,
	discountAmount decimal.Decimal,
	deliveryFee decimal.Decimal,
	taxRate decimal.Decimal,
) (subtotal, discount, fee, tax, total decimal.Decimal) {

	subtotal = itemsSubtotal

	// Discount may never exceed the subtotal
	discount = discountAmount
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.LessThan(decimal.Zero) {
		discount = decimal.Zero
	}

	fee = deliveryFee

	// Tax on (subtotal - discount), rounded to cents
	tax = subtotal.Sub(discount).Mul(taxRate).Round(2)

	// Total = subtotal - discount + fee + tax
	total = subtotal.Sub(discount).Add(fee).Add(tax)

	return subtotal, discount, fee, tax, total
}

// CalculateItemsSubtotal sums item subtotals, each already snapshotted.
func CalculateItemsSubtotal(items []OrderItem) decimal.Decimal {
	subtotal := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].Subtotal)
	}
	return subtotal
}
