package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderSessionKey carries the guest cart key back to front-ends
	HeaderSessionKey = "X-Session-Key"

	ContextKeySessionKey    = "session_key"
	ContextKeyAuthenticated = "authenticated"
)

type SessionKeys interface {
	GetOrCreate(ctx context.Context) string
}

type Identity interface {
	IsAuthenticated(ctx context.Context) bool
}

// GuestSession tags each request with who the cart belongs to: signed in
// users are marked authenticated, guests get their session key in the
// context and in the X-Session-Key response header.
func GuestSession(sessions SessionKeys, identity Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if identity != nil && identity.IsAuthenticated(ctx) {
			c.Set(ContextKeyAuthenticated, true)
			c.Next()
			return
		}

		key := sessions.GetOrCreate(ctx)
		c.Set(ContextKeyAuthenticated, false)
		c.Set(ContextKeySessionKey, key)
		c.Header(HeaderSessionKey, key)
		c.Next()
	}
}

// GetSessionKey returns the guest key set by GuestSession, or ""
func GetSessionKey(c *gin.Context) string {
	return c.GetString(ContextKeySessionKey)
}

func IsAuthenticated(c *gin.Context) bool {
	return c.GetBool(ContextKeyAuthenticated)
}
