package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"gamehub/backend/internal/auth"
	"gamehub/backend/internal/models"
	"gamehub/backend/internal/query"
	"gamehub/backend/internal/response"
	"gamehub/backend/internal/store"
)

// region --- DTOs ---

// GameResponse is a catalog entry. TrackedStatus is set when the caller tracks the game.
type GameResponse struct {
	models.Game
	TrackedStatus models.Status `json:"trackedStatus,omitempty" example:"Owned"`
}

// GameEnvelope wraps a single game.
type GameEnvelope struct {
	Game GameResponse `json:"game"`
}

// endregion

// ListGames godoc
// @Summary      List games
// @Description  Paginated catalog with text, genre, platform and rating filters.
// @Tags         games
// @Produce      json
// @Param        search    query  string  false  "Title substring"
// @Param        genre     query  string  false  "Genre substring"
// @Param        platform  query  string  false  "Platform substring"
// @Param        minRating query  number  false  "Minimum average rating (inclusive)"
// @Param        maxRating query  number  false  "Maximum average rating (inclusive)"
// @Param        page      query  int     false  "Page number"  default(1)
// @Param        limit     query  int     false  "Page size"    default(10)
// @Param        sortField query  string  false  "title, releaseDate, createdAt, updatedAt, averageRating or reviewCount"
// @Param        sortOrder query  string  false  "asc or desc"
// @Success      200  {object}  query.Page[GameResponse]
// @Failure      400  {object}  ErrorResponse
// @Router       /games [get]
func (h *Handler) ListGames(c *gin.Context) {
	l, err := h.listQuery(c, query.Games)
	if err != nil {
		h.fail(c, err)
		return
	}

	games, total, err := h.store.ListGames(c.Request.Context(), l)
	if err != nil {
		h.fail(c, err)
		return
	}

	page := query.Map(query.NewPage(games, total, l), func(g models.Game) GameResponse {
		return GameResponse{Game: g}
	})
	response.OK(c, "Games retrieved successfully", page)
}

// GetGame godoc
// @Summary      Get a game
// @Description  Includes the caller's tracked status when a valid credential is present.
// @Tags         games
// @Produce      json
// @Param        id   path      string  true  "Game ID"
// @Success      200  {object}  GameEnvelope
// @Failure      400  {object}  ErrorResponse "Invalid ID"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /games/{id} [get]
func (h *Handler) GetGame(c *gin.Context) {
	ctx := c.Request.Context()

	game, err := h.store.GetGame(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, notFound(err, "Game not found"))
		return
	}

	resp := GameResponse{Game: *game}
	if me, ok := auth.CurrentIdentity(c); ok {
		tracked, err := h.store.GetTrackedGame(ctx, me.ID, game.ID)
		switch {
		case err == nil:
			resp.TrackedStatus = tracked.Status
		case !errors.Is(err, store.ErrNotFound):
			h.fail(c, err)
			return
		}
	}

	response.OK(c, "Game retrieved successfully", GameEnvelope{Game: resp})
}

// ListGameReviews godoc
// @Summary      List a game's reviews
// @Tags         games
// @Produce      json
// @Param        id        path   string  true   "Game ID"
// @Param        page      query  int     false  "Page number"  default(1)
// @Param        limit     query  int     false  "Page size"    default(10)
// @Param        sortField query  string  false  "createdAt, updatedAt, rating or title"
// @Param        sortOrder query  string  false  "asc or desc"
// @Success      200  {object}  query.Page[ReviewResponse]
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /games/{id}/reviews [get]
func (h *Handler) ListGameReviews(c *gin.Context) {
	game, err := h.store.GetGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, notFound(err, "Game not found"))
		return
	}
	h.listReviews(c, store.ReviewFilter{GameID: game.ID})
}
