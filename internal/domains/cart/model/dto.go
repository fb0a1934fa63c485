package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// ===================================
// REMOTE API PAYLOADS
// ===================================

// AddItemRequest is the body of POST /carrito/
type AddItemRequest struct {
	Product    int64  `json:"producto"`
	Quantity   int    `json:"cantidad"`
	SessionKey string `json:"session_key,omitempty"`
}

// AddItemResponse is the created (or merged) line; guests also get the
// session key the server associated with the cart.
type AddItemResponse struct {
	CartItem
	SessionKey string `json:"session_key,omitempty"`
}

// UpdateQuantityRequest is the body of PATCH /carrito/{id}/
type UpdateQuantityRequest struct {
	Quantity int `json:"cantidad"`
}

// CheckoutRequest is the body of POST /carrito/checkout/
type CheckoutRequest struct {
	PaymentMethod string `json:"metodo_pago"`
}

// CheckoutResponse is what the checkout endpoint answers on success
type CheckoutResponse struct {
	Message    string          `json:"message"`
	PurchaseID int64           `json:"compra_id,omitempty"`
	Total      decimal.Decimal `json:"total,omitempty"`
}

// ===================================
// LOCAL EDGE API
// ===================================

// AddToCartInput represents request to add a product to the cart
type AddToCartInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (r AddToCartInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID,
			validation.Required.Error("product_id is required"),
			validation.Min(int64(1)),
		),
		validation.Field(&r.Quantity,
			validation.Required.Error(ErrInvalidQuantity.Error()),
			validation.Min(MinQuantity).Error(ErrInvalidQuantity.Error()),
		),
	)
}

// UpdateQuantityInput represents request to change a line quantity.
// The quantity is checked by the cart service, not at bind time.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity"`
}

// CheckoutInput represents request to pay for the cart
type CheckoutInput struct {
	PaymentMethod string `json:"payment_method"`
}

// ValidatePaymentMethod checks method against the accepted list
func ValidatePaymentMethod(method string) error {
	return validation.Validate(method,
		validation.Required.Error("payment method is required"),
		validation.In(PaymentMethods...).Error("unsupported payment method"),
	)
}

// CartResponse is the cart view served to front-ends
type CartResponse struct {
	Items     []CartItem      `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
	Pending   int             `json:"pending_mutations"`
}

// CheckoutResult is returned to the caller of a successful checkout
type CheckoutResult struct {
	Message       string          `json:"message"`
	PaymentMethod string          `json:"payment_method"`
	PurchaseID    int64           `json:"purchase_id,omitempty"`
	Total         decimal.Decimal `json:"total"`
}
