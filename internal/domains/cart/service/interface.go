package service

import (
	"context"

	"storefront/internal/domains/cart/model"
	catalog "storefront/internal/domains/catalog/model"

	"github.com/shopspring/decimal"
)

// ServiceInterface is what the cart handler needs
type ServiceInterface interface {
	// Items returns the cached cart, fetching it when empty or stale
	Items(ctx context.Context) ([]model.CartItem, error)

	// Refresh always refetches from the API
	Refresh(ctx context.Context) ([]model.CartItem, error)

	// Snapshot returns the cached lines without I/O
	Snapshot() []model.CartItem

	// AddItem adds quantity units of a product, merging into an existing line.
	// Validates: quantity ≥ 1, in-cart + quantity ≤ stock
	AddItem(ctx context.Context, productID int64, quantity int) (*model.CartItem, error)

	// RemoveItem deletes a line; on failure the line is restored in place
	RemoveItem(ctx context.Context, itemID int64) error

	// SetQuantity changes a line's quantity.
	// Validates: quantity ≥ 1, quantity ≤ stock, line exists and is synced
	SetQuantity(ctx context.Context, itemID int64, quantity int) (*model.CartItem, error)

	Increment(ctx context.Context, itemID int64) (*model.CartItem, error)
	Decrement(ctx context.Context, itemID int64) (*model.CartItem, error)

	// Checkout pays for the whole cart. No optimistic change is applied
	Checkout(ctx context.Context, paymentMethod string) (*model.CheckoutResult, error)

	// ItemCount refetches and sums quantities; 0 on any failure
	ItemCount(ctx context.Context) int

	Total(ctx context.Context) decimal.Decimal

	// Pending is the number of mutations in flight
	Pending() int

	// Reset forgets the cached cart (sign-in / sign-out)
	Reset()
}

// API is the remote cart endpoint set
type API interface {
	ListCart(ctx context.Context, sessionKey string) ([]model.CartItem, error)
	AddCartItem(ctx context.Context, req model.AddItemRequest) (*model.AddItemResponse, error)
	UpdateCartItem(ctx context.Context, itemID int64, quantity int) (*model.CartItem, error)
	DeleteCartItem(ctx context.Context, itemID int64) error
	Checkout(ctx context.Context, paymentMethod, sessionKey string) (*model.CheckoutResponse, error)
}

// ProductLookup resolves the stock of a product not yet in the cart
type ProductLookup interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

// SessionKeys provides the guest cart key
type SessionKeys interface {
	GetOrCreate(ctx context.Context) string
	Replace(ctx context.Context, key string)
}

// Identity tells whether a user is signed in
type Identity interface {
	IsAuthenticated(ctx context.Context) bool
}

// HistoryInvalidator is told when a checkout created a purchase
type HistoryInvalidator interface {
	Invalidate(ctx context.Context)
}

type Publisher interface {
	Publish(event string)
}
