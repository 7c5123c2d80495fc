package handlers

import (
	"time"

	"growup/internal/middleware"
	"growup/internal/models"
	"growup/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	timeout     time.Duration
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, timeout time.Duration, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
		timeout:     timeout,
		log:         log.With().Str("handler", "auth").Logger(),
	}
}

// RegisterRoutes registers the public authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/register", h.HandleRegister)
	router.Post("/login", h.HandleLogin)
}

// RegisterProtectedRoutes registers the routes that need a bearer token.
func (h *AuthHandler) RegisterProtectedRoutes(router fiber.Router, auth ...fiber.Handler) {
	router.Get("/profile", append(auth, h.HandleProfile)...)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Name     string              `json:"Name" validate:"required"`
	Email    string              `json:"Email" validate:"required"`
	Password string              `json:"Password" validate:"required"`
	MobileNo models.MobileNumber `json:"MobileNo" validate:"required"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		h.log.Debug().Err(err).Msg("error parsing register request body")
		return respondInvalidBody(c, err)
	}

	if body, ok := validationFailure(h.validate, req, "Please enter all fields"); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(body)
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	result, err := h.authService.RegisterUser(ctx, services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		MobileNo: string(req.MobileNo),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"msg":   "User registered successfully",
		"user":  result.User,
		"token": result.Token,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"Email" validate:"required"`
	Password string `json:"Password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		h.log.Debug().Err(err).Msg("error parsing login request body")
		return respondInvalidBody(c, err)
	}

	if body, ok := validationFailure(h.validate, req, "Please enter all fields"); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(body)
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	result, err := h.authService.LoginUser(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(fiber.Map{
		"msg":   "User logged in successfully",
		"user":  result.User,
		"token": result.Token,
	})
}

// HandleProfile returns the account of the authenticated user.
func (h *AuthHandler) HandleProfile(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	user, err := h.authService.GetProfile(ctx, middleware.UserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"user": user})
}
