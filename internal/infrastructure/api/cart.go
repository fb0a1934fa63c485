package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	cart "storefront/internal/domains/cart/model"
)

func sessionQuery(sessionKey string) url.Values {
	if sessionKey == "" {
		return nil
	}
	return url.Values{"session_key": []string{sessionKey}}
}

// ListCart calls GET /carrito/. sessionKey is sent only for guests.
func (c *Client) ListCart(ctx context.Context, sessionKey string) ([]cart.CartItem, error) {
	raw, err := c.list(ctx, "/carrito/", sessionQuery(sessionKey))
	if err != nil {
		return nil, err
	}

	items, err := decodeList[cart.CartItem](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return items, nil
}

// AddCartItem calls POST /carrito/.
func (c *Client) AddCartItem(ctx context.Context, req cart.AddItemRequest) (*cart.AddItemResponse, error) {
	var resp cart.AddItemResponse
	if err := c.do(ctx, http.MethodPost, "/carrito/", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateCartItem calls PATCH /carrito/{id}/.
func (c *Client) UpdateCartItem(ctx context.Context, itemID int64, quantity int) (*cart.CartItem, error) {
	var item cart.CartItem
	path := fmt.Sprintf("/carrito/%d/", itemID)
	if err := c.do(ctx, http.MethodPatch, path, nil, cart.UpdateQuantityRequest{Quantity: quantity}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteCartItem calls DELETE /carrito/{id}/.
func (c *Client) DeleteCartItem(ctx context.Context, itemID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/carrito/%d/", itemID), nil, nil, nil)
}

// Checkout calls POST /carrito/checkout/.
func (c *Client) Checkout(ctx context.Context, paymentMethod, sessionKey string) (*cart.CheckoutResponse, error) {
	var resp cart.CheckoutResponse
	body := cart.CheckoutRequest{PaymentMethod: paymentMethod}
	if err := c.do(ctx, http.MethodPost, "/carrito/checkout/", sessionQuery(sessionKey), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
