package api

import (
	"context"
	"fmt"
	"net/http"

	catalog "storefront/internal/domains/catalog/model"
)

// GetProduct calls GET /productos/{id}/.
func (c *Client) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	var p catalog.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/productos/%d/", id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
