package model

import (
	"time"

	catalog "storefront/internal/domains/catalog/model"

	"github.com/shopspring/decimal"
)

// CartItem is one line of the cart.
// ID is assigned by the server; a negative ID marks a provisional line added
// optimistically and not yet reconciled.
type CartItem struct {
	ID        int64           `json:"id"`
	Product   catalog.Product `json:"producto"`
	Quantity  int             `json:"cantidad"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}

// IsProvisional reports whether the line exists only locally
func (i CartItem) IsProvisional() bool {
	return i.ID < 0
}

// ProjectedSubtotal is the client-side estimate price × quantity.
// The server value may differ (rounding rules) and is authoritative.
func (i CartItem) ProjectedSubtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// WithQuantity returns a copy with quantity and projected subtotal updated
func (i CartItem) WithQuantity(quantity int) CartItem {
	i.Quantity = quantity
	i.Subtotal = i.ProjectedSubtotal()
	return i
}

// ProvisionalID is the local id used for an optimistic line of productID
func ProvisionalID(productID int64) int64 {
	return -productID
}

// FindByID returns the index of the line with id, or -1
func FindByID(items []CartItem, id int64) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// FindByProduct returns the index of the line holding productID, or -1
func FindByProduct(items []CartItem, productID int64) int {
	for i := range items {
		if items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// TotalQuantity sums quantities across all lines
func TotalQuantity(items []CartItem) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

// TotalAmount sums line subtotals
func TotalAmount(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}
