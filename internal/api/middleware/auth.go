package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bassista/go_quill/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	identityKey  = "identity"
	authErrorKey = "authError"
)

// Authenticate resolves an optional bearer token into an identity. Requests
// without a valid token continue anonymously; RequireAuth rejects them later.
func Authenticate(v *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.Set(authErrorKey, auth.ErrInvalidToken)
			c.Next()
			return
		}
		id, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			c.Set(authErrorKey, err)
			c.Next()
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireAuth aborts with 401 unless Authenticate resolved an identity.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFrom(c); ok {
			c.Next()
			return
		}
		message := "Authentication required"
		if v, exists := c.Get(authErrorKey); exists {
			if err, _ := v.(error); errors.Is(err, auth.ErrInvalidToken) {
				message = "Invalid or expired token"
			}
		}
		abort(c, http.StatusUnauthorized, message)
	}
}

// IdentityFrom returns the authenticated caller, if any.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
