// Package auth resolves the caller's identity from the "token" cookie and
// enforces resource ownership.
package auth

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"gamehub/backend/internal/apperr"
	"gamehub/backend/internal/response"
	"gamehub/backend/pkg/jwt"
)

// CookieName is the cookie carrying the signed credential.
const CookieName = "token"

const identityKey = "identity"

// Identity is the authenticated caller as asserted by the credential.
// It is trusted as of issuance and never revalidated against storage.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Guard decodes credentials for protected routes.
type Guard struct {
	issuer *jwt.Issuer
	log    *slog.Logger
}

// NewGuard creates a Guard verifying credentials with issuer.
func NewGuard(issuer *jwt.Issuer, log *slog.Logger) *Guard {
	return &Guard{issuer: issuer, log: log}
}

// Middleware rejects requests without a valid credential with 401 and stores
// the Identity for downstream handlers otherwise.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(CookieName)
		if err != nil || tokenString == "" {
			response.Abort(c, apperr.Unauthenticated("Authentication required"), nil)
			return
		}

		identity, err := g.decode(tokenString)
		if err != nil {
			g.log.Warn("rejected credential",
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
				"error", err,
			)
			response.Abort(c, apperr.Unauthenticated("Invalid or expired token"), nil)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by Middleware or OptionalMiddleware.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

// CheckOwner fails with Forbidden unless identity owns the resource.
// Call it only after the resource was fetched by primary key.
func CheckOwner(identity Identity, ownerID string) error {
	if identity.ID == "" || identity.ID != ownerID {
		return apperr.Forbidden("You do not have permission to modify this resource")
	}
	return nil
}

func (g *Guard) decode(tokenString string) (Identity, error) {
	claims, err := g.issuer.ParseToken(tokenString)
	if err != nil {
		return Identity{}, err
	}
	if claims.ID == "" {
		return Identity{}, errors.New("credential has no subject")
	}
	return Identity{ID: claims.ID, Username: claims.Username, Email: claims.Email}, nil
}
