package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/minato-edu/tutoring-api/internal/models"
	appErrors "github.com/minato-edu/tutoring-api/pkg/errors"
)

type mockUserRepo struct {
	users       map[string]*models.User
	lastLoginID string
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginID = id
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "admin@minato.edu", FullName: "Admin", Role: models.RoleAdmin, PasswordHash: string(hash), Active: true},
		"u2": {ID: "u2", Email: "gone@minato.edu", FullName: "Gone", Role: models.RoleRegistrar, PasswordHash: string(hash), Active: false},
	}}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "tutoring-api-test",
	})
	return svc, repo
}

func TestLoginSuccess(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@minato.edu",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, "u1", repo.lastLoginID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@minato.edu",
		Password: "wrong",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@minato.edu",
		Password: "secret123",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "gone@minato.edu",
		Password: "secret123",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@minato.edu",
		Password: "secret123",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc, _ := newAuthFixture(t)
	other := NewAuthService(nil, validator.New(), zap.NewNop(), AuthConfig{
		Secret:     "other-secret",
		Expiration: time.Hour,
	})

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@minato.edu",
		Password: "secret123",
	})
	require.NoError(t, err)

	_, err = other.ValidateToken(resp.AccessToken)
	assert.Error(t, err)
}
