package model

// Cart business constraints
const (
	// DefaultPaymentMethod is used when checkout is requested without one
	DefaultPaymentMethod = "stripe"

	// MinQuantity is the smallest quantity a cart line may hold
	MinQuantity = 1
)

// PaymentMethods accepted by the checkout endpoint
var PaymentMethods = []interface{}{"stripe", "paypal", "card", "transfer"}

// Query keys
const (
	QueryKeyCart = "carrito"
)

// Operation names used in errors and logs
const (
	OpAddItem     = "add_item"
	OpRemoveItem  = "remove_item"
	OpSetQuantity = "set_quantity"
	OpCheckout    = "checkout"
)
