package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/velo/internal/config"
	"github.com/example/velo/internal/models"
	"github.com/example/velo/internal/otp"
	"github.com/example/velo/internal/store"
	"github.com/example/velo/internal/utils"
)

// Authenticator is the slice of the users store the login endpoint needs.
type Authenticator interface {
	Authenticate(phone, password string) (*models.User, error)
}

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	users    Authenticator
	verifier *otp.Verifier
	cfg      *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users Authenticator, verifier *otp.Verifier, cfg *config.Config) *AuthHandler {
	return &AuthHandler{users: users, verifier: verifier, cfg: cfg}
}

type registerRequest struct {
	Username  string `json:"username"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	SessionID string `json:"session_id"`
}

// Register starts a registration: it parks the submitted data behind an OTP
// emailed to the user. No user row exists until the code is verified.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Username == "" || req.Phone == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	sessionID, err := h.verifier.Request(c.Context(), req.SessionID, otp.Registration{
		Username:     req.Username,
		Phone:        req.Phone,
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, otp.ErrDuplicateRegistration) {
			return fiber.NewError(fiber.StatusConflict, "user already exists")
		}
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success":    true,
		"session_id": sessionID,
	})
}

type verifyRequest struct {
	SessionID string `json:"session_id"`
	Code      string `json:"code"`
}

// Verify confirms the OTP code and commits the pending registration.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.verifier.Confirm(c.Context(), req.SessionID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrNoPendingRegistration):
			return fiber.NewError(fiber.StatusNotFound, "no pending registration")
		case errors.Is(err, otp.ErrVerifyFailure):
			return fiber.NewError(fiber.StatusBadRequest, "invalid verification code")
		case errors.Is(err, otp.ErrCodeExpired):
			return fiber.NewError(fiber.StatusBadRequest, "verification code expired")
		case errors.Is(err, otp.ErrTooManyAttempts):
			return fiber.NewError(fiber.StatusTooManyRequests, "too many verification attempts")
		case errors.Is(err, store.ErrDuplicateUser):
			// A concurrent registration won the race for this email or phone.
			return fiber.NewError(fiber.StatusConflict, "user already exists")
		}
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"phone":    user.Phone,
			"email":    user.Email,
		},
		"token": token,
	})
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.users.Authenticate(req.Phone, req.Password)
	if err != nil {
		// One response for unknown phone and wrong password alike.
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"phone":    user.Phone,
		},
		"token": token,
	})
}
