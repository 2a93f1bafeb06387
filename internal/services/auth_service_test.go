package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"repairshop_backend/internal/models"
)

func registerTestUser(t *testing.T, repo *fakeUserRepo, username, password, role string, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     active,
	}
	_, err = repo.CreateUser(user)
	require.NoError(t, err)
	return user
}

func TestRegisterUser(t *testing.T) {
	t.Run("rejects unknown role", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo())
		_, err := svc.RegisterUser(RegisterUserRequest{Username: "joao", Password: "segredo123", Role: "Gerente"})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("hashes the password", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo())
		user, err := svc.RegisterUser(RegisterUserRequest{Username: "joao", Password: "segredo123", Role: models.RoleAttendant})
		require.NoError(t, err)
		assert.NotEqual(t, "segredo123", user.PasswordHash)
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("segredo123")))
		assert.True(t, user.IsActive)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		repo := newFakeUserRepo()
		registerTestUser(t, repo, "joao", "segredo123", models.RoleAttendant, true)
		svc := NewAuthService(repo)

		_, err := svc.RegisterUser(RegisterUserRequest{Username: "joao", Password: "outrasenha1", Role: models.RoleAttendant})
		require.ErrorIs(t, err, ErrConflict)
	})
}

func TestLoginUser(t *testing.T) {
	t.Run("valid credentials return tokens", func(t *testing.T) {
		repo := newFakeUserRepo()
		registerTestUser(t, repo, "joao", "segredo123", models.RoleAttendant, true)
		svc := NewAuthService(repo)

		resp, err := svc.LoginUser(LoginRequest{Username: "joao", Password: "segredo123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		require.NotNil(t, resp.User)
		assert.Equal(t, "joao", resp.User.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := newFakeUserRepo()
		registerTestUser(t, repo, "joao", "segredo123", models.RoleAttendant, true)
		svc := NewAuthService(repo)

		_, err := svc.LoginUser(LoginRequest{Username: "joao", Password: "errada"})
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("unknown username", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo())
		_, err := svc.LoginUser(LoginRequest{Username: "ninguem", Password: "qualquer"})
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("inactive account", func(t *testing.T) {
		repo := newFakeUserRepo()
		registerTestUser(t, repo, "desligado", "segredo123", models.RoleTechnician, false)
		svc := NewAuthService(repo)

		_, err := svc.LoginUser(LoginRequest{Username: "desligado", Password: "segredo123"})
		require.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestRefreshAccessToken(t *testing.T) {
	t.Run("valid refresh token issues a new pair", func(t *testing.T) {
		repo := newFakeUserRepo()
		registerTestUser(t, repo, "joao", "segredo123", models.RoleAttendant, true)
		svc := NewAuthService(repo)

		login, err := svc.LoginUser(LoginRequest{Username: "joao", Password: "segredo123"})
		require.NoError(t, err)

		resp, err := svc.RefreshAccessToken(login.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "joao", resp.User.Username)
	})

	t.Run("access token is not accepted as refresh token", func(t *testing.T) {
		repo := newFakeUserRepo()
		registerTestUser(t, repo, "joao", "segredo123", models.RoleAttendant, true)
		svc := NewAuthService(repo)

		login, err := svc.LoginUser(LoginRequest{Username: "joao", Password: "segredo123"})
		require.NoError(t, err)

		_, err = svc.RefreshAccessToken(login.AccessToken)
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("deactivated account cannot refresh", func(t *testing.T) {
		repo := newFakeUserRepo()
		user := registerTestUser(t, repo, "joao", "segredo123", models.RoleAttendant, true)
		svc := NewAuthService(repo)

		login, err := svc.LoginUser(LoginRequest{Username: "joao", Password: "segredo123"})
		require.NoError(t, err)

		user.IsActive = false
		require.NoError(t, repo.UpdateUser(user))

		_, err = svc.RefreshAccessToken(login.RefreshToken)
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		svc := NewAuthService(newFakeUserRepo())
		_, err := svc.RefreshAccessToken("not-a-token")
		require.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestGetTechnicians(t *testing.T) {
	repo := newFakeUserRepo()
	registerTestUser(t, repo, "tec1", "segredo123", models.RoleTechnician, true)
	registerTestUser(t, repo, "tec2", "segredo123", models.RoleTechnician, false)
	registerTestUser(t, repo, "atendente", "segredo123", models.RoleAttendant, true)
	svc := NewAuthService(repo)

	technicians, err := svc.GetTechnicians()
	require.NoError(t, err)
	require.Len(t, technicians, 1)
	assert.Equal(t, "tec1", technicians[0].Username)
}
