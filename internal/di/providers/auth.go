package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"gamehub/backend/internal/auth"
	"gamehub/backend/internal/config"
	"gamehub/backend/internal/ratelimit"
	"gamehub/backend/internal/validation"
	"gamehub/backend/pkg/jwt"
)

// ProvideIssuer provides the credential issuer.
func ProvideIssuer(i do.Injector) (*jwt.Issuer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return jwt.NewIssuer(cfg.JWTSecret, jwt.TokenTTL), nil
}

// ProvideGuard provides the access guard middleware factory.
func ProvideGuard(i do.Injector) (*auth.Guard, error) {
	issuer := do.MustInvoke[*jwt.Issuer](i)
	log := do.MustInvoke[*slog.Logger](i)
	return auth.NewGuard(issuer, log), nil
}

// ProvideValidator provides the request body validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// AuthLimiterHandle wraps the login/register limiter with Shutdownable.
type AuthLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *AuthLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideAuthLimiter provides the per-client limiter for the auth routes.
func ProvideAuthLimiter(i do.Injector) (*AuthLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &AuthLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.LoginRateLimit, cfg.LoginRateBurst, limiterIdleTTL),
	}, nil
}
