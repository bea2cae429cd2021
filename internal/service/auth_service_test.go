package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlzhg/lingua_go_server/config"
	"github.com/wlzhg/lingua_go_server/internal/model/dto"
	"github.com/wlzhg/lingua_go_server/internal/pkg/jwt"
	"github.com/wlzhg/lingua_go_server/internal/repository"
	"github.com/wlzhg/lingua_go_server/internal/testutil"
)

func setupAuthService(t *testing.T) *AuthService {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestDB(t, db)
	})

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:      "auth-service-test-secret",
			ExpireHours: 24,
		},
	}

	return NewAuthService(repository.NewUserRepository(db), cfg)
}

func TestRegister_Success(t *testing.T) {
	svc := setupAuthService(t)

	resp, err := svc.Register(&dto.RegisterRequest{
		Username: "learner",
		Email:    "learner@example.com",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.NotZero(t, resp.UserID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := setupAuthService(t)

	req := &dto.RegisterRequest{
		Username: "learner1",
		Email:    "learner@example.com",
		Password: "password123",
	}
	_, err := svc.Register(req)
	require.NoError(t, err)

	req.Username = "learner2"
	_, err = svc.Register(req)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := setupAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{
		Username: "learner",
		Email:    "first@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Register(&dto.RegisterRequest{
		Username: "learner",
		Email:    "second@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestLogin_Success(t *testing.T) {
	svc := setupAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{
		Username: "learner",
		Email:    "learner@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	resp, err := svc.Login(&dto.LoginRequest{
		Email:    "learner@example.com",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.Equal(t, "learner", resp.Username)

	// Token 可被同一密钥解析回用户
	claims, err := jwt.ParseToken(resp.Token, "auth-service-test-secret")
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := setupAuthService(t)

	_, err := svc.Register(&dto.RegisterRequest{
		Username: "learner",
		Email:    "learner@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Login(&dto.LoginRequest{
		Email:    "learner@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := setupAuthService(t)

	_, err := svc.Login(&dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_DebugModeAutoVerifiesEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestDB(t, db)
	})

	userRepo := repository.NewUserRepository(db)
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "s", ExpireHours: 24},
	}
	svc := NewAuthService(userRepo, cfg)

	resp, err := svc.Register(&dto.RegisterRequest{
		Username: "learner",
		Email:    "learner@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	user, err := userRepo.GetByID(resp.UserID)
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
}
