package auth

import (
	"github.com/gin-gonic/gin"
)

// OptionalMiddleware inspects the cookie and sets the Identity if present and valid,
// but does not fail if the credential is missing or invalid.
func (g *Guard) OptionalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, err := c.Cookie(CookieName); err == nil && tokenString != "" {
			if identity, err := g.decode(tokenString); err == nil {
				c.Set(identityKey, identity)
			} else {
				g.log.Debug("ignoring invalid optional credential", "error", err)
			}
		}
		c.Next()
	}
}
