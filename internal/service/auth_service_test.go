package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supportdesk/ticketd/internal/auth"
	"github.com/supportdesk/ticketd/internal/config"
	"github.com/supportdesk/ticketd/internal/domain"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	users := newFakeUserRepo()
	cfg := config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 15,
		BcryptCost:            4, // min cost keeps the suite fast
	}
	return NewAuthService(cfg, users), users
}

func seedLoginUser(t *testing.T, svc *AuthService, users *fakeUserRepo, active bool) domain.User {
	t.Helper()
	hash, err := auth.HashPassword("hunter2-hunter2", 4)
	require.NoError(t, err)
	user := domain.User{
		ID:           "u-login",
		Name:         "Sam Rivera",
		Email:        "sam@example.com",
		PasswordHash: hash,
		Role:         domain.UserRoleAgent,
		Active:       active,
	}
	users.users[user.ID] = user
	return user
}

func TestRegister(t *testing.T) {
	svc, _ := newAuthFixture(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "  Sam Rivera ",
		Email:    "Sam@Example.com",
		Password: "hunter2-hunter2",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Sam Rivera", user.Name)
	assert.Equal(t, "sam@example.com", user.Email)
	assert.Equal(t, domain.UserRoleAgent, user.Role)
	assert.NotEqual(t, "hunter2-hunter2", user.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{Password: "short"})
	de := domainErr(t, err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Contains(t, de.Details, "name")
	assert.Contains(t, de.Details, "email")
	assert.Contains(t, de.Details, "password")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, users := newAuthFixture(t)
	seedLoginUser(t, svc, users, true)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Imposter",
		Email:    "sam@example.com",
		Password: "hunter2-hunter2",
	})
	assert.Equal(t, "CONFLICT", domainErr(t, err).Code)
}

func TestLogin(t *testing.T) {
	svc, users := newAuthFixture(t)
	seedLoginUser(t, svc, users, true)

	result, err := svc.Login(context.Background(), "SAM@example.com", "hunter2-hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	claims, err := svc.TokenManager().ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-login", claims.UserID)
	assert.Equal(t, domain.UserRoleAgent, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, users := newAuthFixture(t)
	seedLoginUser(t, svc, users, true)

	_, err := svc.Login(context.Background(), "sam@example.com", "wrong")
	assert.Equal(t, "UNAUTHORIZED", domainErr(t, err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	assert.Equal(t, "UNAUTHORIZED", domainErr(t, err).Code)
}

func TestLoginInactiveUser(t *testing.T) {
	svc, users := newAuthFixture(t)
	seedLoginUser(t, svc, users, false)

	_, err := svc.Login(context.Background(), "sam@example.com", "hunter2-hunter2")
	assert.Equal(t, "FORBIDDEN", domainErr(t, err).Code)
}
