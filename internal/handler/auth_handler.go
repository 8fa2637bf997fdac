package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"gamehub/backend/internal/apperr"
	"gamehub/backend/internal/models"
	"gamehub/backend/internal/response"
	"gamehub/backend/internal/store"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email" example:"test@example.com"`
	Username string `json:"username" validate:"required,min=3,max=20" example:"testuser"`
	Password string `json:"password" validate:"required,min=6,max=30" example:"secret1"`
}

func (in *RegisterInput) normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
}

// LoginInput defines the structure for user login. Username also accepts the email address.
type LoginInput struct {
	Username string `json:"username" validate:"required" example:"testuser"`
	Password string `json:"password" validate:"required" example:"secret1"`
}

func (in *LoginInput) normalize() {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
}

// AuthUserResponse is the identity returned by register and login.
type AuthUserResponse struct {
	ID       string `json:"id" example:"64b7f0c2a1e4d3b2c1a09f8e"`
	Username string `json:"username" example:"testuser"`
	Email    string `json:"email" example:"test@example.com"`
}

func newAuthUserResponse(u *models.User) AuthUserResponse {
	return AuthUserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

// endregion

// Register godoc
// @Summary      Register a new user
// @Description  Creates a new account. Email and username are trimmed and lowercased.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  AuthUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Email or username already in use"
// @Failure      429  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput
	if err := h.bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), h.opts.BcryptCost)
	if err != nil {
		h.fail(c, err)
		return
	}

	user := models.User{
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: string(hashedPassword),
	}
	if err := h.store.CreateUser(c.Request.Context(), &user); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			err = apperr.Conflict("Email already in use")
		case errors.Is(err, store.ErrDuplicateUsername):
			err = apperr.Conflict("Username already exists")
		case errors.Is(err, store.ErrDuplicate):
			err = apperr.Conflict("Email or username already in use")
		}
		h.fail(c, err)
		return
	}

	h.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	response.Created(c, "User created successfully", newAuthUserResponse(&user))
}

// Login godoc
// @Summary      Log in
// @Description  Verifies credentials and sets the HTTP-only "token" cookie (24h).
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Credentials"
// @Success      200  {object}  AuthUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse "Invalid username or password"
// @Failure      429  {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var input LoginInput
	if err := h.bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}

	invalid := apperr.Unauthenticated("Invalid username or password")

	user, err := h.store.FindUserByLogin(c.Request.Context(), input.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = invalid
		}
		h.fail(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		h.fail(c, invalid)
		return
	}

	token, err := h.issuer.GenerateToken(user.ID, user.Username, user.Email)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.setTokenCookie(c, token, int(h.issuer.TTL().Seconds()))
	response.OK(c, "Login successful", newAuthUserResponse(user))
}

// Logout godoc
// @Summary      Log out
// @Description  Overwrites the credential cookie with an expired empty value.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  MessageResponse
// @Router       /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	h.clearTokenCookie(c)
	response.OK(c, "Logged out successfully", nil)
}
