package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"growup/internal/errs"
	"growup/internal/models"
	"growup/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newTestAuthService(repo *MockUserRepository, opts ...services.Option) *services.AuthService {
	return services.NewAuthService(repo, services.AuthConfig{
		JWTSecret: testJWTSecret,
		TokenTTL:  time.Hour,
		HashCost:  bcrypt.MinCost,
	}, opts...)
}

func notFound(email string) error {
	return fmt.Errorf("user with email %s: %w", email, errs.ErrNotFound)
}

var registerInput = services.RegisterInput{
	Name:     "John Doe",
	Email:    "john@example.com",
	Password: "password123",
	MobileNo: "9876543210",
}

func TestAuthService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	publisher := &recordingPublisher{}
	authService := newTestAuthService(mockRepo, services.WithPublisher(publisher, "growup.events"))

	mockRepo.On("GetByEmail", ctx, registerInput.Email).Return(nil, notFound(registerInput.Email)).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	result, err := authService.RegisterUser(ctx, registerInput)
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)

	user := result.User
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "John Doe", user.Name)
	assert.Equal(t, models.MobileNumber("9876543210"), user.MobileNo)
	assert.Equal(t, 10000.0, user.Balance)
	assert.Regexp(t, `^johnjoh3210[A-Za-z0-9]{3}$`, user.Username)
	assert.NotEmpty(t, user.WatchlistID)
	assert.NotEmpty(t, user.HoldingID)
	assert.NotEmpty(t, user.ExchangeID)
	assert.NotEqual(t, user.WatchlistID, user.HoldingID)
	assert.False(t, user.Date.IsZero())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))

	claims, err := authService.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.WatchlistID, claims.WatchlistID)
	assert.Equal(t, user.HoldingID, claims.HoldingID)
	assert.Equal(t, user.Username, claims.Username)

	assert.Equal(t, []string{services.EventUserRegistered}, publisher.RoutingKeys())
}

func TestAuthService_RegisterUser_Validation(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newTestAuthService(mockRepo)

	for name, in := range map[string]services.RegisterInput{
		"missing name":     {Email: "a@b.c", Password: "x", MobileNo: "1"},
		"blank email":      {Name: "A", Email: "   ", Password: "x", MobileNo: "1"},
		"missing password": {Name: "A", Email: "a@b.c", MobileNo: "1"},
		"missing mobile":   {Name: "A", Email: "a@b.c", Password: "x"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := authService.RegisterUser(context.Background(), in)
			assertKind(t, err, errs.KindValidation, "Please enter all fields")
		})
	}
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newTestAuthService(mockRepo)

	mockRepo.On("GetByEmail", ctx, registerInput.Email).Return(&models.User{ID: "1"}, nil).Once()

	_, err := authService.RegisterUser(ctx, registerInput)
	assertKind(t, err, errs.KindConflict, "User already exists")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	// Lost race: the unique index rejects the write.
	mockRepo.On("GetByEmail", ctx, registerInput.Email).Return(nil, notFound(registerInput.Email)).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(errs.ErrDuplicateEmail).Once()

	_, err = authService.RegisterUser(ctx, registerInput)
	assertKind(t, err, errs.KindConflict, "User already exists")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUser_UsernameCollision(t *testing.T) {
	ctx := context.Background()

	t.Run("regenerates and retries", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := newTestAuthService(mockRepo)

		var attempted []string
		mockRepo.On("GetByEmail", ctx, registerInput.Email).Return(nil, notFound(registerInput.Email)).Once()
		mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).
			Run(func(args mock.Arguments) { attempted = append(attempted, args.Get(1).(*models.User).Username) }).
			Return(errs.ErrDuplicateUsername).Once()
		mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).
			Run(func(args mock.Arguments) { attempted = append(attempted, args.Get(1).(*models.User).Username) }).
			Return(nil).Once()

		result, err := authService.RegisterUser(ctx, registerInput)
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
		require.Len(t, attempted, 2)
		assert.Equal(t, attempted[1], result.User.Username)

		claims, err := authService.ValidateToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, result.User.Username, claims.Username)
	})

	t.Run("gives up after three attempts", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		authService := newTestAuthService(mockRepo)

		mockRepo.On("GetByEmail", ctx, registerInput.Email).Return(nil, notFound(registerInput.Email)).Once()
		mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(errs.ErrDuplicateUsername).Times(3)

		_, err := authService.RegisterUser(ctx, registerInput)
		assertKind(t, err, errs.KindInternal, "Server error during registration")
		mockRepo.AssertExpectations(t)
	})
}

func TestAuthService_LoginUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newTestAuthService(mockRepo)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{
		ID:          "user-123",
		Username:    "testuser",
		Email:       "test@example.com",
		Password:    string(hashedPassword),
		WatchlistID: "wl-1",
		HoldingID:   "hd-1",
	}

	// Test successful login
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	result, err := authService.LoginUser(ctx, "test@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user, result.User)
	assert.NotEmpty(t, result.Token)

	// The token is a plain HS256 JWT
	parsedToken, err := jwt.Parse(result.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, "HS256", parsedToken.Header["alg"])
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, "wl-1", claims["watchlist_id"])
	assert.Equal(t, "hd-1", claims["holding_id"])
	assert.Contains(t, claims, "exp")
	assert.Contains(t, claims, "iat")

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	_, err = authService.LoginUser(ctx, "test@example.com", "wrongpassword")
	assertKind(t, err, errs.KindAuth, "Invalid credentials")

	// Test unknown email
	mockRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, notFound("nobody@example.com")).Once()
	_, err = authService.LoginUser(ctx, "nobody@example.com", "password123")
	assertKind(t, err, errs.KindAuth, "User does not exist")

	// Test storage failure
	mockRepo.On("GetByEmail", ctx, "broken@example.com").Return(nil, fmt.Errorf("connection reset")).Once()
	_, err = authService.LoginUser(ctx, "broken@example.com", "password123")
	assertKind(t, err, errs.KindInternal, "Server error during login")

	// Test missing fields
	_, err = authService.LoginUser(ctx, "", "password123")
	assertKind(t, err, errs.KindValidation, "Please enter all fields")

	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := newTestAuthService(new(MockUserRepository))

	sign := func(method jwt.SigningMethod, secret []byte, claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
		require.NoError(t, err)
		return s
	}
	valid := jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(time.Hour).Unix()}

	claims, err := authService.ValidateToken(sign(jwt.SigningMethodHS256, []byte(testJWTSecret), valid))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	tests := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": sign(jwt.SigningMethodHS256, []byte("other"), valid),
		"wrong alg":    sign(jwt.SigningMethodHS512, []byte(testJWTSecret), valid),
		"expired":      sign(jwt.SigningMethodHS256, []byte(testJWTSecret), jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(-time.Minute).Unix()}),
		"no subject":   sign(jwt.SigningMethodHS256, []byte(testJWTSecret), jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := authService.ValidateToken(token)
			assert.Equal(t, errs.KindUnauthorized, errs.KindOf(err))
		})
	}
}

func TestAuthService_GetProfile(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := newTestAuthService(mockRepo)

	mockRepo.On("GetByID", ctx, "u1").Return(&models.User{ID: "u1", Name: "Jane"}, nil).Once()
	mockRepo.On("GetByID", ctx, "missing").Return(nil, fmt.Errorf("user with ID missing: %w", errs.ErrNotFound)).Once()

	user, err := authService.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", user.Name)

	_, err = authService.GetProfile(ctx, "missing")
	assertKind(t, err, errs.KindNotFound, "User not found")
	mockRepo.AssertExpectations(t)
}
