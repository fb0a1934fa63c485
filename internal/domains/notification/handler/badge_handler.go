package handler

import (
	"net/http"

	"storefront/internal/domains/notification/service"
	"storefront/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type BadgeHandler struct {
	badges *service.BadgeService
}

func NewBadgeHandler(badges *service.BadgeService) *BadgeHandler {
	return &BadgeHandler{badges: badges}
}

// GetBadges handles GET /badges. ?refresh=true recomputes before answering.
func (h *BadgeHandler) GetBadges(c *gin.Context) {
	if c.Query("refresh") == "true" {
		response.Success(c, http.StatusOK, "Badges refreshed", h.badges.Refresh(c.Request.Context()))
		return
	}
	response.Success(c, http.StatusOK, "Badges retrieved", h.badges.Badges())
}
