package handler

import (
	"errors"
	"net/http"

	"storefront/internal/domains/auth/model"
	"storefront/internal/domains/auth/service"
	"storefront/internal/infrastructure/api"
	"storefront/internal/shared/response"
	"storefront/pkg/eventbus"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
)

// Resetter drops state cached for the previous identity
type Resetter interface {
	Reset()
}

type Handler struct {
	service *service.Service
	bus     *eventbus.Bus
	caches  []Resetter
}

// NewHandler creates the auth handler. caches are reset whenever the
// signed-in identity changes.
func NewHandler(s *service.Service, bus *eventbus.Bus, caches ...Resetter) *Handler {
	return &Handler{service: s, bus: bus, caches: caches}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/register", h.Register)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", h.Me)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	user, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.identityChanged()
	response.Success(c, http.StatusOK, "Login successful", user)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	h.identityChanged()
	response.Success(c, http.StatusCreated, "Registration successful", user)
}

func (h *Handler) Logout(c *gin.Context) {
	h.service.Logout(c.Request.Context())
	h.identityChanged()
	response.Success(c, http.StatusOK, "Logged out", nil)
}

// Me handles GET /auth/me. ?refresh=true reloads the profile from the API.
func (h *Handler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	if c.Query("refresh") == "true" {
		user, err := h.service.Profile(ctx)
		if err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, http.StatusOK, "Profile retrieved", user)
		return
	}

	user := h.service.CurrentUser(ctx)
	if user == nil {
		response.Unauthorized(c, model.ErrNotAuthenticated.Error())
		return
	}
	response.Success(c, http.StatusOK, "Profile retrieved", user)
}

// identityChanged resets per-user caches and lets badges recount
func (h *Handler) identityChanged() {
	for _, r := range h.caches {
		r.Reset()
	}
	if h.bus != nil {
		h.bus.Publish(eventbus.CartChanged)
	}
}

func writeError(c *gin.Context, err error) {
	var fieldErrs validation.Errors

	switch {
	case errors.As(err, &fieldErrs):
		response.ErrorWithCode(c, http.StatusBadRequest, response.CodeValidation, "Validation failed", fieldErrs)
	case errors.Is(err, model.ErrInvalidLogin), errors.Is(err, model.ErrNotAuthenticated):
		response.Unauthorized(c, err.Error())
	case api.StatusCode(err) == http.StatusBadRequest:
		// registration field errors from the API
		response.Error(c, http.StatusBadRequest, api.MessageOr(err, "Invalid request"), nil)
	default:
		response.Error(c, http.StatusBadGateway, "Authentication service unavailable", err.Error())
	}
}
