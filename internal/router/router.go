// Package router assembles the gin engine and the /api route table.
package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "gamehub/backend/docs" // registers the generated OpenAPI document
	"gamehub/backend/internal/auth"
	"gamehub/backend/internal/handler"
	"gamehub/backend/internal/middleware"
	"gamehub/backend/internal/ratelimit"
	"gamehub/backend/internal/response"
)

// Deps are the collaborators the route table needs.
type Deps struct {
	Handler     *handler.Handler
	Guard       *auth.Guard
	AuthLimiter *ratelimit.KeyedRateLimiter
	Log         *slog.Logger
}

// New builds the engine with every route registered.
func New(d Deps) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		middleware.RequestID(),
		middleware.Logger(d.Log),
		middleware.Recovery(d.Log),
	)

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, "Route not found")
	})
	router.NoMethod(func(c *gin.Context) {
		response.Fail(c, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	h := d.Handler
	requireAuth := d.Guard.Middleware()
	optionalAuth := d.Guard.OptionalMiddleware()
	validID := middleware.ValidIDs("id")
	validPair := middleware.ValidIDs("id", "gameId")

	api := router.Group("/api")
	{
		api.GET("", h.Welcome)
		api.GET("/ping", h.Ping)

		// Auth routes
		authRoutes := api.Group("/auth")
		{
			limited := middleware.RateLimit(d.AuthLimiter)
			authRoutes.POST("/register", limited, h.Register)
			authRoutes.POST("/login", limited, h.Login)
			authRoutes.POST("/logout", h.Logout)
		}

		// Game routes (public)
		gameRoutes := api.Group("/games")
		{
			gameRoutes.GET("", h.ListGames)
			gameRoutes.GET("/:id", validID, optionalAuth, h.GetGame)
			gameRoutes.GET("/:id/reviews", validID, h.ListGameReviews)
		}

		// Review routes (mutations require the owner)
		reviewRoutes := api.Group("/reviews")
		{
			reviewRoutes.GET("", h.ListReviews)
			reviewRoutes.POST("", requireAuth, h.CreateReview)
			reviewRoutes.GET("/:id", validID, h.GetReview)
			reviewRoutes.PATCH("/:id", validID, requireAuth, h.UpdateReview)
			reviewRoutes.DELETE("/:id", validID, requireAuth, h.DeleteReview)
		}

		// User routes
		userRoutes := api.Group("/users")
		{
			userRoutes.GET("", requireAuth, h.ListUsers)
			userRoutes.GET("/:id", validID, requireAuth, h.GetUser)
			userRoutes.PATCH("/:id", validID, requireAuth, h.UpdateUser)
			userRoutes.DELETE("/:id", validID, requireAuth, h.DeleteUser)
			userRoutes.GET("/:id/reviews", validID, h.ListUserReviews)

			// Tracked games
			userRoutes.GET("/:id/games", validID, requireAuth, h.ListTrackedGames)
			userRoutes.POST("/:id/games", validID, requireAuth, h.TrackGame)
			userRoutes.GET("/:id/games/:gameId", validPair, requireAuth, h.GetTrackedGame)
			userRoutes.PATCH("/:id/games/:gameId", validPair, requireAuth, h.UpdateTrackedGame)
			userRoutes.DELETE("/:id/games/:gameId", validPair, requireAuth, h.UntrackGame)
		}
	}

	return router
}
