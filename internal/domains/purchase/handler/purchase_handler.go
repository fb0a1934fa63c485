package handler

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/domains/purchase/model"
	"storefront/internal/domains/purchase/service"
	"storefront/internal/infrastructure/api"
	"storefront/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *service.Service
}

func NewHandler(s *service.Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	purchases := rg.Group("/purchases")
	{
		purchases.GET("", h.List)
		purchases.GET("/:id", h.Get)
	}
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Purchases retrieved", gin.H{
		"items": list,
		"count": len(list),
	})
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid purchase id")
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Purchase retrieved", p)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrPurchaseNotFound):
		response.NotFound(c, err.Error())
	case api.IsUnauthorized(err):
		response.Unauthorized(c, api.MessageOr(err, "Sign in to see your purchases"))
	default:
		response.Error(c, http.StatusBadGateway, api.MessageOr(err, "Could not load purchases"), err.Error())
	}
}
