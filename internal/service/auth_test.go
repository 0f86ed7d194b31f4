package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openshop/storefront/internal/models"
	"github.com/openshop/storefront/internal/repo"
	"github.com/openshop/storefront/internal/transport"
)

var (
	testJWTSecret     = []byte("test-jwt-secret")
	testRefreshSecret = []byte("test-refresh-secret")
)

type captureMailer struct {
	email string
	token string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.email = email
	m.token = token
	return nil
}

func newAuthService(t *testing.T) (*AuthService, *captureMailer) {
	t.Helper()
	m := &captureMailer{}
	return &AuthService{
		Repo:          InitTestDB(t),
		JWTSecret:     testJWTSecret,
		RefreshSecret: testRefreshSecret,
		Mailer:        m,
	}, m
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, transport.RegisterRequest{
		Email:    "a@example.com",
		Password: "password",
		FullName: "Nguyen Van A",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleCustomer, res.User.Role)
	require.NotEqual(t, "password", res.User.PasswordHash)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)

	_, err = svc.Register(ctx, transport.RegisterRequest{Email: "a@example.com", Password: "password"})
	require.ErrorIs(t, err, repo.ErrConflict)

	_, err = svc.Register(ctx, transport.RegisterRequest{Email: "not-an-email", Password: "password"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, transport.RegisterRequest{Email: "b@example.com", Password: "short"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Login(ctx, transport.LoginRequest{Email: "a@example.com", Password: "password"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, transport.LoginRequest{Email: "a@example.com", Password: "wrong"})
	require.ErrorIs(t, err, repo.ErrForbidden)

	_, err = svc.Login(ctx, transport.LoginRequest{Email: "ghost@example.com", Password: "password"})
	require.ErrorIs(t, err, repo.ErrForbidden)
}

func TestRefreshRotation(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, transport.RegisterRequest{Email: "a@example.com", Password: "password"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, res.RefreshToken, rotated.RefreshToken)

	// the first token is revoked by rotation
	_, err = svc.Refresh(ctx, res.RefreshToken)
	require.ErrorIs(t, err, repo.ErrForbidden)

	// the rotated one still works
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, "garbage")
	require.ErrorIs(t, err, repo.ErrForbidden)
}

func TestLogoutRevokesRefresh(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, transport.RegisterRequest{Email: "a@example.com", Password: "password"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.RefreshToken))

	_, err = svc.Refresh(ctx, res.RefreshToken)
	require.ErrorIs(t, err, repo.ErrForbidden)

	// garbage token logs out silently
	require.NoError(t, svc.Logout(ctx, "garbage"))
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, transport.RegisterRequest{Email: "a@example.com", Password: "password"})
	require.NoError(t, err)
	userID := res.User.ID

	err = svc.ChangePassword(ctx, userID, transport.ChangePasswordRequest{
		CurrentPassword: "wrong", NewPassword: "newpassword",
	})
	require.ErrorIs(t, err, repo.ErrForbidden)

	require.NoError(t, svc.ChangePassword(ctx, userID, transport.ChangePasswordRequest{
		CurrentPassword: "password", NewPassword: "newpassword",
	}))

	_, err = svc.Login(ctx, transport.LoginRequest{Email: "a@example.com", Password: "password"})
	require.ErrorIs(t, err, repo.ErrForbidden)
	_, err = svc.Login(ctx, transport.LoginRequest{Email: "a@example.com", Password: "newpassword"})
	require.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, mailer := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, transport.RegisterRequest{Email: "a@example.com", Password: "password"})
	require.NoError(t, err)

	// unknown email answers silently and sends nothing
	require.NoError(t, svc.ForgotPassword(ctx, "ghost@example.com"))
	require.Empty(t, mailer.token)

	require.NoError(t, svc.ForgotPassword(ctx, "a@example.com"))
	require.Equal(t, "a@example.com", mailer.email)
	require.NotEmpty(t, mailer.token)

	require.NoError(t, svc.ResetPassword(ctx, transport.ResetPasswordRequest{
		Token: mailer.token, NewPassword: "resetpass",
	}))

	_, err = svc.Login(ctx, transport.LoginRequest{Email: "a@example.com", Password: "resetpass"})
	require.NoError(t, err)

	// token is single use
	err = svc.ResetPassword(ctx, transport.ResetPasswordRequest{
		Token: mailer.token, NewPassword: "another",
	})
	require.ErrorIs(t, err, repo.ErrInvalidState)

	err = svc.ResetPassword(ctx, transport.ResetPasswordRequest{
		Token: "no-such-token", NewPassword: "another",
	})
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestUpdateProfilePartial(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, transport.RegisterRequest{
		Email: "a@example.com", Password: "password", FullName: "Old Name", Phone: "111",
	})
	require.NoError(t, err)

	newName := "New Name"
	user, err := svc.UpdateProfile(ctx, res.User.ID, transport.UpdateProfileRequest{FullName: &newName})
	require.NoError(t, err)
	require.Equal(t, "New Name", user.FullName)
	require.Equal(t, "111", user.Phone, "absent fields stay untouched")
}
