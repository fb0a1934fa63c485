package model

import (
	"errors"
	"time"

	catalog "storefront/internal/domains/catalog/model"

	"github.com/shopspring/decimal"
)

// Purchase is a completed checkout in the user's history
type Purchase struct {
	ID            int64           `json:"id"`
	PurchasedAt   time.Time       `json:"fecha_compra"`
	Status        string          `json:"estado"`
	PaymentMethod string          `json:"metodo_pago"`
	Total         decimal.Decimal `json:"total"`
	TotalItems    int             `json:"total_items"`
	Items         []PurchaseItem  `json:"items"`
}

// PurchaseItem is one line of a purchase. The API either nests the product
// or flattens its name and image.
type PurchaseItem struct {
	ID           int64            `json:"id"`
	Product      *catalog.Product `json:"producto,omitempty"`
	ProductName  string           `json:"producto_nombre,omitempty"`
	ProductImage string           `json:"producto_imagen,omitempty"`
	Quantity     int              `json:"cantidad"`
	UnitPrice    decimal.Decimal  `json:"precio_unitario"`
	Subtotal     decimal.Decimal  `json:"subtotal"`
}

// Status values
const (
	StatusCompleted = "completada"
)

// Query keys
const (
	QueryKeyPurchases = "compras"
)

var ErrPurchaseNotFound = errors.New("purchase not found")

// Name returns the product name whichever shape the API used
func (i PurchaseItem) Name() string {
	if i.ProductName != "" {
		return i.ProductName
	}
	if i.Product != nil {
		return i.Product.Name
	}
	return ""
}

// ItemCount is total_items when present, else the number of lines
func (p Purchase) ItemCount() int {
	if p.TotalItems > 0 {
		return p.TotalItems
	}
	return len(p.Items)
}
