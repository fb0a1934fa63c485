package handler

import (
	"net/http"
	"strconv"

	catalog "storefront/internal/domains/catalog/model"
	"storefront/internal/domains/favorite/service"
	"storefront/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// Handler serves the favorites list
type Handler struct {
	service *service.Service
}

func NewHandler(s *service.Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	favorites := rg.Group("/favorites")
	{
		favorites.GET("", h.List)
		favorites.POST("", h.Add)
		favorites.POST("/toggle", h.Toggle)
		favorites.DELETE("", h.Clear)
		favorites.GET("/:id", h.Check)
		favorites.DELETE("/:id", h.Remove)
	}
}

func (h *Handler) List(c *gin.Context) {
	list := h.service.List(c.Request.Context())
	response.Success(c, http.StatusOK, "Favorites retrieved", gin.H{
		"items": list,
		"count": len(list),
	})
}

// Add handles POST /favorites with a product snapshot as body
func (h *Handler) Add(c *gin.Context) {
	p, ok := bindProduct(c)
	if !ok {
		return
	}

	if !h.service.Add(c.Request.Context(), p) {
		response.Error(c, http.StatusConflict, "Product already in favorites", nil)
		return
	}
	response.Success(c, http.StatusCreated, "Added to favorites", p)
}

func (h *Handler) Toggle(c *gin.Context) {
	p, ok := bindProduct(c)
	if !ok {
		return
	}

	isFavorite := h.service.Toggle(c.Request.Context(), p)
	response.Success(c, http.StatusOK, "Favorites updated", gin.H{
		"product_id":  p.ID,
		"is_favorite": isFavorite,
	})
}

func (h *Handler) Remove(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	h.service.Remove(c.Request.Context(), id)
	response.Success(c, http.StatusOK, "Removed from favorites", nil)
}

func (h *Handler) Check(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, "Favorite status retrieved", gin.H{
		"product_id":  id,
		"is_favorite": h.service.Contains(c.Request.Context(), id),
	})
}

func (h *Handler) Clear(c *gin.Context) {
	h.service.Clear(c.Request.Context())
	response.Success(c, http.StatusOK, "Favorites cleared", nil)
}

func bindProduct(c *gin.Context) (catalog.Product, bool) {
	var p catalog.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid product", err.Error())
		return p, false
	}
	if p.ID <= 0 {
		response.BadRequest(c, "Product id is required")
		return p, false
	}
	return p, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid product id")
		return 0, false
	}
	return id, true
}
