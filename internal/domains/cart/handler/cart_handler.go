package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/domains/cart/model"
	"storefront/internal/domains/cart/service"
	"storefront/internal/infrastructure/api"
	"storefront/internal/shared/response"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for cart
type Handler struct {
	service service.ServiceInterface
}

// NewHandler creates handler instance
func NewHandler(s service.ServiceInterface) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.GET("/count", h.GetCount)
		cart.POST("/items", h.AddItem)
		cart.PATCH("/items/:id", h.UpdateQuantity)
		cart.POST("/items/:id/increment", h.Increment)
		cart.POST("/items/:id/decrement", h.Decrement)
		cart.DELETE("/items/:id", h.RemoveItem)
		cart.POST("/checkout", h.Checkout)
	}
}

// ===================================
// API 1: GET /cart
// ===================================

// GetCart handles GET /cart. ?refresh=true bypasses the cache.
func (h *Handler) GetCart(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		items []model.CartItem
		err   error
	)
	if c.Query("refresh") == "true" {
		items, err = h.service.Refresh(ctx)
	} else {
		items, err = h.service.Items(ctx)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Cart retrieved successfully", h.view(items))
}

func (h *Handler) view(items []model.CartItem) model.CartResponse {
	return model.CartResponse{
		Items:     items,
		ItemCount: model.TotalQuantity(items),
		Total:     model.TotalAmount(items),
		Pending:   h.service.Pending(),
	}
}

// ===================================
// API 2: GET /cart/count
// ===================================

func (h *Handler) GetCount(c *gin.Context) {
	count := h.service.ItemCount(c.Request.Context())
	response.Success(c, http.StatusOK, "Cart count retrieved", gin.H{"count": count})
}

// ===================================
// API 3: POST /cart/items
// ===================================

func (h *Handler) AddItem(c *gin.Context) {
	var req model.AddToCartInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, err)
		return
	}

	item, err := h.service.AddItem(c.Request.Context(), req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Item added to cart", item)
}

// ===================================
// API 4: PATCH /cart/items/:id
// ===================================

func (h *Handler) UpdateQuantity(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	var req model.UpdateQuantityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	// quantity 0 must reach the service so it is rejected as a quantity error
	item, err := h.service.SetQuantity(c.Request.Context(), itemID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Cart item updated", item)
}

func (h *Handler) Increment(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	item, err := h.service.Increment(c.Request.Context(), itemID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Cart item updated", item)
}

func (h *Handler) Decrement(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	item, err := h.service.Decrement(c.Request.Context(), itemID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Cart item updated", item)
}

// ===================================
// API 5: DELETE /cart/items/:id
// ===================================

func (h *Handler) RemoveItem(c *gin.Context) {
	itemID, ok := parseItemID(c)
	if !ok {
		return
	}

	if err := h.service.RemoveItem(c.Request.Context(), itemID); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Item removed from cart", nil)
}

// ===================================
// API 6: POST /cart/checkout
// ===================================

func (h *Handler) Checkout(c *gin.Context) {
	var req model.CheckoutInput
	// an empty body means the default payment method
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request", err.Error())
			return
		}
	}

	result, err := h.service.Checkout(c.Request.Context(), req.PaymentMethod)
	if err != nil {
		writeError(c, err)
		return
	}

	msg := result.Message
	if msg == "" {
		msg = "Checkout completed"
	}
	response.Success(c, http.StatusOK, msg, result)
}

// ===================================
// HELPERS
// ===================================

func parseItemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid item id")
		return 0, false
	}
	return id, true
}

// writeError maps cart errors to HTTP answers
func writeError(c *gin.Context, err error) {
	var opErr *model.OperationError
	var fieldErrs validation.Errors
	var valueErr validation.Error

	switch {
	case errors.As(err, &fieldErrs):
		response.ErrorWithCode(c, http.StatusBadRequest, response.CodeValidation, "Validation failed", fieldErrs)
	case errors.As(err, &valueErr):
		response.ErrorWithCode(c, http.StatusBadRequest, response.CodeValidation, valueErr.Error(), nil)
	case errors.Is(err, model.ErrInvalidQuantity), errors.Is(err, model.ErrInvalidProduct):
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, model.ErrItemNotFound), errors.Is(err, model.ErrProductNotFound):
		response.Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, model.ErrInsufficientStock), errors.Is(err, model.ErrItemNotSynced):
		response.Error(c, http.StatusConflict, err.Error(), nil)
	case errors.As(err, &opErr):
		response.Error(c, operationStatus(opErr), opErr.Message, gin.H{
			"op":        opErr.Op,
			"retryable": opErr.Retryable,
		})
	default:
		response.Error(c, http.StatusBadGateway, "Cart service unavailable", err.Error())
	}
}

// operationStatus passes client errors through and reports the rest as an
// upstream failure
func operationStatus(e *model.OperationError) int {
	code := api.StatusCode(e.Err)
	switch {
	case code == http.StatusServiceUnavailable:
		return code
	case code >= 400 && code < 500:
		return code
	default:
		return http.StatusBadGateway
	}
}
