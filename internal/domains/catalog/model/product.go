package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category of a product as returned by the API
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion,omitempty"`
}

// Product is the catalog representation of a book or media item.
// Field names follow the remote API.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"nombre"`
	Author      string          `json:"autor"`
	Description string          `json:"descripcion,omitempty"`
	BackCover   string          `json:"contraportada,omitempty"`
	Price       decimal.Decimal `json:"precio"`
	Image       string          `json:"imagen,omitempty"`
	Stock       int             `json:"stock"`
	Category    *Category       `json:"categoria,omitempty"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
}

// InStock reports whether at least one unit is available
func (p Product) InStock() bool {
	return p.Stock > 0
}
