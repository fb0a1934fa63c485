package api

import (
	"context"
	"fmt"
	"net/http"

	purchase "storefront/internal/domains/purchase/model"
)

// ListPurchases calls GET /compras/. A 404 is returned as an *APIError;
// the purchase service decides what it means.
func (c *Client) ListPurchases(ctx context.Context) ([]purchase.Purchase, error) {
	raw, err := c.list(ctx, "/compras/", nil)
	if err != nil {
		return nil, err
	}

	items, err := decodeList[purchase.Purchase](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode purchases: %w", err)
	}
	return items, nil
}

// GetPurchase calls GET /compras/{id}/.
func (c *Client) GetPurchase(ctx context.Context, id int64) (*purchase.Purchase, error) {
	var p purchase.Purchase
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/compras/%d/", id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
