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

// UpdateUserInput is a partial profile update. Absent fields are left untouched.
type UpdateUserInput struct {
	Username *string `json:"username" validate:"omitnil,min=3,max=20" example:"newname"`
	Bio      *string `json:"bio" validate:"omitnil,max=200" example:"I like roguelikes"`
}

func (in *UpdateUserInput) normalize() {
	if in.Username != nil {
		*in.Username = strings.ToLower(strings.TrimSpace(*in.Username))
	}
	if in.Bio != nil {
		*in.Bio = strings.TrimSpace(*in.Bio)
	}
}

// UserResponse is an account as seen by another user. Email is only set for the caller's own account.
type UserResponse struct {
	ID            string    `json:"id" example:"64b7f0c2a1e4d3b2c1a09f8e"`
	Username      string    `json:"username" example:"testuser"`
	Email         string    `json:"email,omitempty" example:"test@example.com"`
	Bio           string    `json:"bio"`
	IsCurrentUser bool      `json:"isCurrentUser"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func newUserResponse(u models.User, me auth.Identity) UserResponse {
	resp := UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Bio:           u.Bio,
		IsCurrentUser: u.ID == me.ID,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if resp.IsCurrentUser {
		resp.Email = u.Email
	}
	return resp
}

// UserEnvelope wraps a single account.
type UserEnvelope struct {
	User UserResponse `json:"user"`
}

// endregion

// ListUsers godoc
// @Summary      List users
// @Description  Paginated list of accounts, optionally filtered by username.
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Param        search    query  string  false  "Username substring"
// @Param        page      query  int     false  "Page number"  default(1)
// @Param        limit     query  int     false  "Page size"    default(10)
// @Param        sortField query  string  false  "createdAt, updatedAt or username"
// @Param        sortOrder query  string  false  "asc or desc"
// @Success      200  {object}  query.Page[UserResponse]
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	l, err := h.listQuery(c, query.Users)
	if err != nil {
		h.fail(c, err)
		return
	}

	users, total, err := h.store.ListUsers(c.Request.Context(), l)
	if err != nil {
		h.fail(c, err)
		return
	}

	me := currentIdentity(c)
	page := query.Map(query.NewPage(users, total, l), func(u models.User) UserResponse {
		return newUserResponse(u, me)
	})
	response.OK(c, "Users retrieved successfully", page)
}

// GetUser godoc
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  UserEnvelope
// @Failure      400  {object}  ErrorResponse "Invalid ID"
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.store.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, notFound(err, "User not found"))
		return
	}

	response.OK(c, "User retrieved successfully", UserEnvelope{User: newUserResponse(*user, currentIdentity(c))})
}

// UpdateUser godoc
// @Summary      Update own profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id     path  string           true  "User ID"
// @Param        input  body  UpdateUserInput  true  "Fields to update"
// @Success      200  {object}  UserEnvelope
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "User not found"
// @Failure      409  {object}  ErrorResponse "Username already exists"
// @Router       /users/{id} [patch]
func (h *Handler) UpdateUser(c *gin.Context) {
	ctx := c.Request.Context()
	me := currentIdentity(c)

	user, err := h.store.GetUser(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, notFound(err, "User not found"))
		return
	}
	if err := auth.CheckOwner(me, user.ID); err != nil {
		h.fail(c, err)
		return
	}

	var input UpdateUserInput
	if err := h.bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	upd := store.UserUpdate{Username: input.Username, Bio: input.Bio}
	if upd.IsEmpty() {
		h.fail(c, apperr.Validation("No valid fields to update"))
		return
	}

	updated, err := h.store.UpdateUser(ctx, user.ID, upd)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			err = apperr.Conflict("Username already exists")
		}
		h.fail(c, notFound(err, "User not found"))
		return
	}

	response.OK(c, "User updated successfully", UserEnvelope{User: newUserResponse(*updated, me)})
}

// DeleteUser godoc
// @Summary      Delete own account
// @Description  Removes the account with its reviews and tracked games and clears the credential cookie.
// @Tags         users
// @Produce      json
// @Security     CookieAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse "Invalid ID"
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	ctx := c.Request.Context()
	me := currentIdentity(c)

	user, err := h.store.GetUser(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, notFound(err, "User not found"))
		return
	}
	if err := auth.CheckOwner(me, user.ID); err != nil {
		h.fail(c, err)
		return
	}

	if err := h.store.DeleteUser(ctx, user.ID); err != nil {
		h.fail(c, notFound(err, "User not found"))
		return
	}

	h.log.Info("user deleted", "user_id", user.ID)
	h.clearTokenCookie(c)
	response.OK(c, "User deleted successfully", nil)
}

// ListUserReviews godoc
// @Summary      List a user's reviews
// @Tags         users
// @Produce      json
// @Param        id        path   string  true   "User ID"
// @Param        page      query  int     false  "Page number"  default(1)
// @Param        limit     query  int     false  "Page size"    default(10)
// @Param        sortField query  string  false  "createdAt, updatedAt, rating or title"
// @Param        sortOrder query  string  false  "asc or desc"
// @Success      200  {object}  query.Page[ReviewResponse]
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /users/{id}/reviews [get]
func (h *Handler) ListUserReviews(c *gin.Context) {
	user, err := h.store.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, notFound(err, "User not found"))
		return
	}
	h.listReviews(c, store.ReviewFilter{UserID: user.ID})
}
