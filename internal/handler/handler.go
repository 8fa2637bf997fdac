// Package handler implements the HTTP handlers for the /api routes.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"gamehub/backend/internal/apperr"
	"gamehub/backend/internal/auth"
	"gamehub/backend/internal/query"
	"gamehub/backend/internal/response"
	"gamehub/backend/internal/store"
	"gamehub/backend/internal/validation"
	"gamehub/backend/pkg/jwt"
)

// Options tunes credential handling.
type Options struct {
	// SecureCookie marks the credential cookie Secure (production).
	SecureCookie bool
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Handler serves every resource route. It holds no per-request state.
type Handler struct {
	store     store.Store
	issuer    *jwt.Issuer
	validator *validation.Validator
	log       *slog.Logger
	opts      Options
}

// New creates a Handler.
func New(st store.Store, issuer *jwt.Issuer, v *validation.Validator, log *slog.Logger, opts Options) *Handler {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Handler{store: st, issuer: issuer, validator: v, log: log, opts: opts}
}

// region --- Shared DTOs ---

// ErrorResponse is the envelope of a failed request.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"An error message"`
}

// MessageResponse is the envelope of a successful request without data.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Done"`
}

// endregion

// normalizer is implemented by inputs that trim or lowercase fields before validation.
type normalizer interface {
	normalize()
}

// bind decodes the JSON body into dst, normalizes it and validates it.
func (h *Handler) bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Wrap(err, apperr.CodeValidation, "Invalid request body")
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return h.validator.Validate(dst)
}

func (h *Handler) fail(c *gin.Context, err error) {
	response.Error(c, err, h.log)
}

func (h *Handler) listQuery(c *gin.Context, r query.Resource) (query.List, error) {
	return query.Parse(c.Request.URL.Query(), r)
}

// currentIdentity is only called behind Guard.Middleware.
func currentIdentity(c *gin.Context) auth.Identity {
	identity, _ := auth.CurrentIdentity(c)
	return identity
}

// notFound converts store.ErrNotFound into a 404 with msg.
func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}

func (h *Handler) setTokenCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.CookieName, token, maxAge, "/", "", h.opts.SecureCookie, true)
}

func (h *Handler) clearTokenCookie(c *gin.Context) {
	h.setTokenCookie(c, "", -1)
}
