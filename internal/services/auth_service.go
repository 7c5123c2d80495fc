package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"growup/internal/errs"
	"growup/internal/models"
	"growup/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL        = 24 * time.Hour
	defaultStartingBalance = 10000
	maxUsernameAttempts    = 3
)

// AuthConfig holds the account settings of AuthService.
type AuthConfig struct {
	JWTSecret       string
	TokenTTL        time.Duration
	StartingBalance float64
	HashCost        int // bcrypt cost, bcrypt.DefaultCost when zero
}

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	MobileNo string
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	User  *models.User
	Token string
}

// Claims are the identity facts carried by a bearer token.
type Claims struct {
	UserID      string
	WatchlistID string
	HoldingID   string
	Username    string
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo        repositories.UserRepository
	jwtSecret       []byte
	tokenDurat      time.Duration // Duration for which JWT is valid
	startingBalance float64
	hashCost        int
	notifier
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, cfg AuthConfig, opts ...Option) *AuthService {
	s := &AuthService{
		userRepo:        userRepo,
		jwtSecret:       []byte(cfg.JWTSecret),
		tokenDurat:      cfg.TokenTTL,
		startingBalance: cfg.StartingBalance,
		hashCost:        cfg.HashCost,
		notifier:        newNotifier("auth_service", opts),
	}
	if s.tokenDurat <= 0 {
		s.tokenDurat = defaultTokenTTL
	}
	if s.startingBalance <= 0 {
		s.startingBalance = defaultStartingBalance
	}
	if s.hashCost == 0 {
		s.hashCost = bcrypt.DefaultCost
	}
	return s
}

// RegisterUser opens a new account and returns it together with a signed token.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.MobileNo = strings.TrimSpace(in.MobileNo)
	if in.Name == "" || in.Email == "" || strings.TrimSpace(in.Password) == "" || in.MobileNo == "" {
		return nil, errs.Validation("Please enter all fields")
	}

	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, errs.Conflict("User already exists")
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, errs.Internal("Server error during registration", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, errs.Internal("Server error during registration", fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Email:       in.Email,
		Password:    string(hashedPassword),
		MobileNo:    models.MobileNumber(in.MobileNo),
		Balance:     s.startingBalance,
		WatchlistID: newOpaqueID(),
		HoldingID:   newOpaqueID(),
		ExchangeID:  newOpaqueID(),
		Date:        time.Now().UTC(),
	}

	var token string
	for attempt := 1; ; attempt++ {
		user.Username, err = generateUsername(user.Name, user.Email, string(user.MobileNo))
		if err != nil {
			return nil, errs.Internal("Server error during registration", fmt.Errorf("failed to generate username: %w", err))
		}
		// Signed before the write so a persisted user always has a token.
		token, err = s.signToken(user)
		if err != nil {
			return nil, errs.Internal("Server error during registration", err)
		}

		err = s.userRepo.Create(ctx, user)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, errs.ErrDuplicateEmail):
			return nil, errs.Conflict("User already exists")
		case errors.Is(err, errs.ErrDuplicateUsername) && attempt < maxUsernameAttempts:
			s.log.Debug().Str("username", user.Username).Int("attempt", attempt).Msg("username taken, regenerating")
			continue
		default:
			return nil, errs.Internal("Server error during registration", fmt.Errorf("failed to register user: %w", err))
		}
	}

	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	s.publish(EventUserRegistered, user.ID, map[string]string{
		"user_id":      user.ID,
		"username":     user.Username,
		"watchlist_id": user.WatchlistID,
		"holding_id":   user.HoldingID,
	})

	return &AuthResult{User: user, Token: token}, nil
}

// LoginUser authenticates a user by email and returns a fresh token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errs.Validation("Please enter all fields")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.Auth("User does not exist")
	}
	if err != nil {
		return nil, errs.Internal("Server error during login", err)
	}

	// Compare the provided password with the hashed password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errs.Auth("Invalid credentials")
	}

	token, err := s.signToken(user)
	if err != nil {
		return nil, errs.Internal("Server error during login", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// GetProfile returns the stored account of userID.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.NotFound("User not found")
	}
	if err != nil {
		return nil, errs.Internal("Failed to load profile", err)
	}
	return user, nil
}

func (s *AuthService) signToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":      user.ID,
		"watchlist_id": user.WatchlistID,
		"holding_id":   user.HoldingID,
		"username":     user.Username,
		"exp":          now.Add(s.tokenDurat).Unix(), // Token expiration time
		"iat":          now.Unix(),                   // Issued at time
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning its claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("token validation failed")
		return nil, errs.Wrap(errs.KindUnauthorized, "Invalid or expired token", err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errs.New(errs.KindUnauthorized, "Invalid or expired token")
	}

	claims := &Claims{
		UserID:      stringClaim(mc, "user_id"),
		WatchlistID: stringClaim(mc, "watchlist_id"),
		HoldingID:   stringClaim(mc, "holding_id"),
		Username:    stringClaim(mc, "username"),
	}
	if claims.UserID == "" {
		return nil, errs.New(errs.KindUnauthorized, "Invalid token claims")
	}
	return claims, nil
}

func stringClaim(mc jwt.MapClaims, key string) string {
	v, _ := mc[key].(string)
	return v
}
