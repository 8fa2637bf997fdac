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

// CreateReviewInput defines the body of a new review.
type CreateReviewInput struct {
	Game       string `json:"game" validate:"required,objectid" example:"64b7f0c2a1e4d3b2c1a09f8e"`
	Rating     int    `json:"rating" validate:"required,min=1,max=10" example:"8"`
	Title      string `json:"title" validate:"required,max=40" example:"Great"`
	ReviewBody string `json:"reviewBody" validate:"required,max=400" example:"Fun game"`
}

func (in *CreateReviewInput) normalize() {
	in.Game = strings.TrimSpace(in.Game)
	in.Title = strings.TrimSpace(in.Title)
	in.ReviewBody = strings.TrimSpace(in.ReviewBody)
}

// UpdateReviewInput is a partial review update. The owner and game cannot change.
type UpdateReviewInput struct {
	Rating     *int    `json:"rating" validate:"omitnil,min=1,max=10" example:"9"`
	Title      *string `json:"title" validate:"omitnil,required,max=40" example:"Even better"`
	ReviewBody *string `json:"reviewBody" validate:"omitnil,required,max=400" example:"Still fun"`
}

func (in *UpdateReviewInput) normalize() {
	if in.Title != nil {
		*in.Title = strings.TrimSpace(*in.Title)
	}
	if in.ReviewBody != nil {
		*in.ReviewBody = strings.TrimSpace(*in.ReviewBody)
	}
}

// ReviewAuthor is the populated owner of a review.
type ReviewAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ReviewGame is the populated target of a review.
type ReviewGame struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ReviewResponse is a review with its owner and game populated.
type ReviewResponse struct {
	ID         string       `json:"id"`
	User       ReviewAuthor `json:"user"`
	Game       ReviewGame   `json:"game"`
	Rating     int          `json:"rating"`
	Title      string       `json:"title"`
	ReviewBody string       `json:"reviewBody"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func newReviewResponse(r models.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:         r.ID,
		User:       ReviewAuthor{ID: r.UserID},
		Game:       ReviewGame{ID: r.GameID},
		Rating:     r.Rating,
		Title:      r.Title,
		ReviewBody: r.Body,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.User != nil {
		resp.User.Username = r.User.Username
	}
	if r.Game != nil {
		resp.Game.Title = r.Game.Title
	}
	return resp
}

// ReviewEnvelope wraps a single review.
type ReviewEnvelope struct {
	Review ReviewResponse `json:"review"`
}

// endregion

// listReviews writes a page of reviews matching f.
func (h *Handler) listReviews(c *gin.Context, f store.ReviewFilter) {
	l, err := h.listQuery(c, query.Reviews)
	if err != nil {
		h.fail(c, err)
		return
	}

	reviews, total, err := h.store.ListReviews(c.Request.Context(), f, l)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.OK(c, "Reviews retrieved successfully", query.Map(query.NewPage(reviews, total, l), newReviewResponse))
}

// ListReviews godoc
// @Summary      List reviews
// @Description  Paginated reviews, optionally narrowed to one game and/or one author.
// @Tags         reviews
// @Produce      json
// @Param        game      query  string  false  "Game ID"
// @Param        user      query  string  false  "User ID"
// @Param        search    query  string  false  "Title substring"
// @Param        page      query  int     false  "Page number"  default(1)
// @Param        limit     query  int     false  "Page size"    default(10)
// @Param        sortField query  string  false  "createdAt, updatedAt, rating or title"
// @Param        sortOrder query  string  false  "asc or desc"
// @Success      200  {object}  query.Page[ReviewResponse]
// @Failure      400  {object}  ErrorResponse
// @Router       /reviews [get]
func (h *Handler) ListReviews(c *gin.Context) {
	f := store.ReviewFilter{
		GameID: strings.TrimSpace(c.Query("game")),
		UserID: strings.TrimSpace(c.Query("user")),
	}
	for _, id := range []string{f.GameID, f.UserID} {
		if id != "" && !models.ValidID(id) {
			h.fail(c, apperr.Validation("Invalid ID"))
			return
		}
	}
	h.listReviews(c, f)
}

// CreateReview godoc
// @Summary      Review a game
// @Description  One review per user and game.
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        input  body  CreateReviewInput  true  "Review"
// @Success      201  {object}  ReviewEnvelope
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Failure      409  {object}  ErrorResponse "User has already reviewed this game"
// @Router       /reviews [post]
func (h *Handler) CreateReview(c *gin.Context) {
	ctx := c.Request.Context()
	me := currentIdentity(c)

	var input CreateReviewInput
	if err := h.bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}

	if _, err := h.store.GetGame(ctx, input.Game); err != nil {
		h.fail(c, notFound(err, "Game not found"))
		return
	}

	review, err := h.store.CreateReview(ctx, &models.Review{
		UserID: me.ID,
		GameID: input.Game,
		Rating: input.Rating,
		Title:  input.Title,
		Body:   input.ReviewBody,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			err = apperr.Conflict("User has already reviewed this game")
		}
		h.fail(c, err)
		return
	}

	response.Created(c, "Review created successfully", ReviewEnvelope{Review: newReviewResponse(*review)})
}

// GetReview godoc
// @Summary      Get a review
// @Tags         reviews
// @Produce      json
// @Param        id   path      string  true  "Review ID"
// @Success      200  {object}  ReviewEnvelope
// @Failure      400  {object}  ErrorResponse "Invalid ID"
// @Failure      404  {object}  ErrorResponse "Review not found"
// @Router       /reviews/{id} [get]
func (h *Handler) GetReview(c *gin.Context) {
	review, err := h.store.GetReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, notFound(err, "Review not found"))
		return
	}
	response.OK(c, "Review retrieved successfully", ReviewEnvelope{Review: newReviewResponse(*review)})
}

// UpdateReview godoc
// @Summary      Update own review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id     path  string             true  "Review ID"
// @Param        input  body  UpdateReviewInput  true  "Fields to update"
// @Success      200  {object}  ReviewEnvelope
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Review not found"
// @Router       /reviews/{id} [patch]
func (h *Handler) UpdateReview(c *gin.Context) {
	ctx := c.Request.Context()

	review, err := h.store.GetReview(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, notFound(err, "Review not found"))
		return
	}
	if err := auth.CheckOwner(currentIdentity(c), review.UserID); err != nil {
		h.fail(c, err)
		return
	}

	var input UpdateReviewInput
	if err := h.bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	upd := store.ReviewUpdate{Rating: input.Rating, Title: input.Title, Body: input.ReviewBody}
	if upd.IsEmpty() {
		h.fail(c, apperr.Validation("No valid fields to update"))
		return
	}

	updated, err := h.store.UpdateReview(ctx, review.ID, upd)
	if err != nil {
		h.fail(c, notFound(err, "Review not found"))
		return
	}
	response.OK(c, "Review updated successfully", ReviewEnvelope{Review: newReviewResponse(*updated)})
}

// DeleteReview godoc
// @Summary      Delete own review
// @Tags         reviews
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      string  true  "Review ID"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse "Invalid ID"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Review not found"
// @Router       /reviews/{id} [delete]
func (h *Handler) DeleteReview(c *gin.Context) {
	ctx := c.Request.Context()

	review, err := h.store.GetReview(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, notFound(err, "Review not found"))
		return
	}
	if err := auth.CheckOwner(currentIdentity(c), review.UserID); err != nil {
		h.fail(c, err)
		return
	}

	if err := h.store.DeleteReview(ctx, review.ID); err != nil {
		h.fail(c, notFound(err, "Review not found"))
		return
	}
	response.OK(c, "Review deleted successfully", nil)
}
