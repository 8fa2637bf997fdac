package providers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/do/v2"

	"gamehub/backend/internal/auth"
	"gamehub/backend/internal/config"
	"gamehub/backend/internal/handler"
	"gamehub/backend/internal/router"
	"gamehub/backend/internal/validation"
	"gamehub/backend/pkg/jwt"
)

// ProvideHandler provides the resource handlers.
func ProvideHandler(i do.Injector) (*handler.Handler, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	issuer := do.MustInvoke[*jwt.Issuer](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return handler.New(storeHandle.Store, issuer, v, log, handler.Options{
		SecureCookie: cfg.IsProduction(),
	}), nil
}

// ProvideRouter provides the gin engine with every route registered.
func ProvideRouter(i do.Injector) (*gin.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	return router.New(router.Deps{
		Handler:     do.MustInvoke[*handler.Handler](i),
		Guard:       do.MustInvoke[*auth.Guard](i),
		AuthLimiter: do.MustInvoke[*AuthLimiterHandle](i).KeyedRateLimiter,
		Log:         do.MustInvoke[*slog.Logger](i),
	}), nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	engine := do.MustInvoke[*gin.Engine](i)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Swagger UI available", "url", "http://localhost:"+cfg.Port+"/swagger/index.html")

	return &HTTPServerHandle{Server: srv}, nil
}
