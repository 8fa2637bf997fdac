package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"gamehub/backend/internal/apperr"
	"gamehub/backend/internal/auth"
	"gamehub/backend/internal/models"
	"gamehub/backend/internal/query"
	"gamehub/backend/internal/response"
	"gamehub/backend/internal/store"
)

// region --- DTOs ---

// TrackGameInput adds a game to the caller's profile. Status defaults to Unowned.
type TrackGameInput struct {
	Game   string `json:"game" validate:"required,objectid" example:"64b7f0c2a1e4d3b2c1a09f8e"`
	Status string `json:"status" validate:"omitempty,status" example:"Wishlisted"`
	Notes  string `json:"notes" validate:"max=400" example:"Waiting for a sale"`
}

func (in *TrackGameInput) normalize() {
	in.Game = strings.TrimSpace(in.Game)
	in.Status = strings.TrimSpace(in.Status)
	in.Notes = strings.TrimSpace(in.Notes)
}

// UpdateTrackedGameInput is a partial update of a tracked game.
type UpdateTrackedGameInput struct {
	Status *string `json:"status" validate:"omitnil,status" example:"Owned"`
	Notes  *string `json:"notes" validate:"omitnil,max=400" example:"Finished it"`
}

func (in *UpdateTrackedGameInput) normalize() {
	if in.Status != nil {
		*in.Status = strings.TrimSpace(*in.Status)
	}
	if in.Notes != nil {
		*in.Notes = strings.TrimSpace(*in.Notes)
	}
}

// TrackedGameResponse is a tracked game with the game populated.
type TrackedGameResponse struct {
	ID        string        `json:"id"`
	User      string        `json:"user"`
	Game      *models.Game  `json:"game"`
	Status    models.Status `json:"status" example:"Owned"`
	Notes     string        `json:"notes"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func newTrackedGameResponse(tg models.TrackedGame) TrackedGameResponse {
	game := tg.Game
	if game == nil {
		game = &models.Game{Base: models.Base{ID: tg.GameID}}
	}
	return TrackedGameResponse{
		ID:        tg.ID,
		User:      tg.UserID,
		Game:      game,
		Status:    tg.Status,
		Notes:     tg.Notes,
		CreatedAt: tg.CreatedAt,
		UpdatedAt: tg.UpdatedAt,
	}
}

// TrackedGameEnvelope wraps a single tracked game.
type TrackedGameEnvelope struct {
	Game TrackedGameResponse `json:"game"`
}

// endregion

// ListTrackedGames godoc
// @Summary      List a user's tracked games
// @Tags         tracked-games
// @Produce      json
// @Security     CookieAuth
// @Param        id        path   string  true   "User ID"
// @Param        status    query  string  false  "Owned, Wishlisted, Unowned or Blacklisted"
// @Param        search    query  string  false  "Game title substring"
// @Param        page      query  int     false  "Page number"  default(1)
// @Param        limit     query  int     false  "Page size"    default(10)
// @Param        sortField query  string  false  "createdAt, updatedAt, status or title"
// @Param        sortOrder query  string  false  "asc or desc"
// @Success      200  {object}  query.Page[TrackedGameResponse]
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /users/{id}/games [get]
func (h *Handler) ListTrackedGames(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := h.store.GetUser(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, notFound(err, "User not found"))
		return
	}

	l, err := h.listQuery(c, query.TrackedGames)
	if err != nil {
		h.fail(c, err)
		return
	}

	items, total, err := h.store.ListTrackedGames(ctx, user.ID, l)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.OK(c, "Games retrieved successfully", query.Map(query.NewPage(items, total, l), newTrackedGameResponse))
}

// TrackGame godoc
// @Summary      Add a game to own profile
// @Tags         tracked-games
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id     path  string          true  "User ID"
// @Param        input  body  TrackGameInput  true  "Tracked game"
// @Success      201  {object}  TrackedGameEnvelope
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "User or game not found"
// @Failure      409  {object}  ErrorResponse "Game already added to user profile"
// @Router       /users/{id}/games [post]
func (h *Handler) TrackGame(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := h.store.GetUser(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, notFound(err, "User not found"))
		return
	}
	if err := auth.CheckOwner(currentIdentity(c), user.ID); err != nil {
		h.fail(c, err)
		return
	}

	var input TrackGameInput
	if err := h.bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}

	if _, err := h.store.GetGame(ctx, input.Game); err != nil {
		h.fail(c, notFound(err, "Game not found"))
		return
	}

	tracked, err := h.store.CreateTrackedGame(ctx, &models.TrackedGame{
		UserID: user.ID,
		GameID: input.Game,
		Status: models.Status(input.Status),
		Notes:  input.Notes,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			err = apperr.Conflict("Game already added to user profile")
		}
		h.fail(c, err)
		return
	}

	response.Created(c, "Game successfully added to user profile", TrackedGameEnvelope{Game: newTrackedGameResponse(*tracked)})
}

// GetTrackedGame godoc
// @Summary      Get a tracked game
// @Tags         tracked-games
// @Produce      json
// @Security     CookieAuth
// @Param        id      path  string  true  "User ID"
// @Param        gameId  path  string  true  "Game ID"
// @Success      200  {object}  TrackedGameEnvelope
// @Failure      400  {object}  ErrorResponse "Invalid ID"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Game not found in user profile"
// @Router       /users/{id}/games/{gameId} [get]
func (h *Handler) GetTrackedGame(c *gin.Context) {
	tracked, err := h.store.GetTrackedGame(c.Request.Context(), c.Param("id"), c.Param("gameId"))
	if err != nil {
		h.fail(c, notFound(err, "Game not found in user profile"))
		return
	}
	response.OK(c, "Game retrieved successfully", TrackedGameEnvelope{Game: newTrackedGameResponse(*tracked)})
}

// UpdateTrackedGame godoc
// @Summary      Update a tracked game on own profile
// @Tags         tracked-games
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id      path  string                  true  "User ID"
// @Param        gameId  path  string                  true  "Game ID"
// @Param        input   body  UpdateTrackedGameInput  true  "Fields to update"
// @Success      200  {object}  TrackedGameEnvelope
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Game not found in user profile"
// @Router       /users/{id}/games/{gameId} [patch]
func (h *Handler) UpdateTrackedGame(c *gin.Context) {
	ctx := c.Request.Context()

	tracked, err := h.store.GetTrackedGame(ctx, c.Param("id"), c.Param("gameId"))
	if err != nil {
		h.fail(c, notFound(err, "Game not found in user profile"))
		return
	}
	if err := auth.CheckOwner(currentIdentity(c), tracked.UserID); err != nil {
		h.fail(c, err)
		return
	}

	var input UpdateTrackedGameInput
	if err := h.bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	upd := store.TrackedGameUpdate{Notes: input.Notes}
	if input.Status != nil {
		status := models.Status(*input.Status)
		upd.Status = &status
	}
	if upd.IsEmpty() {
		h.fail(c, apperr.Validation("No valid fields to update"))
		return
	}

	updated, err := h.store.UpdateTrackedGame(ctx, tracked.UserID, tracked.GameID, upd)
	if err != nil {
		h.fail(c, notFound(err, "Game not found in user profile"))
		return
	}
	response.OK(c, "Game updated successfully", TrackedGameEnvelope{Game: newTrackedGameResponse(*updated)})
}

// UntrackGame godoc
// @Summary      Remove a game from own profile
// @Tags         tracked-games
// @Produce      json
// @Security     CookieAuth
// @Param        id      path  string  true  "User ID"
// @Param        gameId  path  string  true  "Game ID"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse "Invalid ID"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Game not found in user profile"
// @Router       /users/{id}/games/{gameId} [delete]
func (h *Handler) UntrackGame(c *gin.Context) {
	ctx := c.Request.Context()

	tracked, err := h.store.GetTrackedGame(ctx, c.Param("id"), c.Param("gameId"))
	if err != nil {
		h.fail(c, notFound(err, "Game not found in user profile"))
		return
	}
	if err := auth.CheckOwner(currentIdentity(c), tracked.UserID); err != nil {
		h.fail(c, err)
		return
	}

	if err := h.store.DeleteTrackedGame(ctx, tracked.UserID, tracked.GameID); err != nil {
		h.fail(c, notFound(err, "Game not found in user profile"))
		return
	}
	response.OK(c, "Game deleted from user profile successfully", nil)
}
