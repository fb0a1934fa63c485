package handler

import (
	"context"
	"net/http"

	"storefront/internal/domains/session/service"
	"storefront/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Identity interface {
	IsAuthenticated(ctx context.Context) bool
}

type Handler struct {
	sessions *service.Manager
	identity Identity
}

func NewHandler(sessions *service.Manager, identity Identity) *Handler {
	return &Handler{sessions: sessions, identity: identity}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/session", h.GetSession)
}

// GetSession handles GET /session. Guests get their cart key; signed in
// users get none since the API ties the cart to the account.
func (h *Handler) GetSession(c *gin.Context) {
	ctx := c.Request.Context()
	authenticated := h.identity != nil && h.identity.IsAuthenticated(ctx)

	data := gin.H{"authenticated": authenticated}
	if !authenticated {
		data["session_key"] = h.sessions.GetOrCreate(ctx)
	}
	response.Success(c, http.StatusOK, "Session retrieved", data)
}
