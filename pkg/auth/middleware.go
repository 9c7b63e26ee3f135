package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sitirukayah12-del/sora2-demo/pkg/ctxkeys"
)

// BearerAuthMiddleware validates bearer tokens and injects the account
// identity into the request context. All failures respond with the same
// uniform 401 body so the reason cannot be probed from outside.
func BearerAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			c.Abort()
			return
		}

		username, err := ValidateToken(parts[1], secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid bearer token"})
			c.Abort()
			return
		}

		c.Set(string(ctxkeys.KeyUsername), username)
		c.Set(string(ctxkeys.KeyAuthType), "jwt")
		c.Next()
	}
}

// AdminAuthMiddleware gates the admin surface behind a single shared secret,
// passed in the X-Admin-Secret header. The compare is constant-time.
func AdminAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-Admin-Secret")
		if provided == "" {
			provided = c.Query("password")
		}
		if ValidateAdminSecret(provided, secret) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set(string(ctxkeys.KeyAuthType), "admin")
		c.Next()
	}
}

// ValidateAdminSecret checks a provided admin secret against the configured
// one without leaking timing information.
func ValidateAdminSecret(provided, expected string) error {
	if provided == "" {
		return ErrMissingAdminSecret
	}
	if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
		return ErrInvalidAdminSecret
	}
	return nil
}
