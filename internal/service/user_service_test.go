package service

import (
	"context"
	"testing"

	"pharmacy/internal/model"
	"pharmacy/pkg/apperror"

	"github.com/stretchr/testify/require"
)

func TestSignupAccountantRequiresApproval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	accountant, err := env.users.Signup(ctx, SignupRequest{
		Username: "casey",
		Email:    "Casey@Pharmacy.test",
		Password: "secret123",
		Role:     model.RoleAccountant,
	})
	require.NoError(t, err)
	require.Equal(t, model.UserStatusPending, accountant.Status)
	require.Equal(t, "casey@pharmacy.test", accountant.Email)

	// Pending accounts cannot log in yet.
	_, err = env.users.Login(ctx, LoginRequest{Email: "casey@pharmacy.test", Password: "secret123"})
	require.True(t, apperror.Is(err, apperror.CodeAuth))

	admin, err := env.users.Signup(ctx, SignupRequest{
		Username: "root",
		Email:    "admin@pharmacy.test",
		Password: "secret123",
		Role:     model.RoleAdmin,
	})
	require.NoError(t, err)
	require.Equal(t, model.UserStatusApproved, admin.Status)

	_, err = env.users.UpdateStatus(ctx, admin.ID.String(), accountant.ID.String(), UpdateUserStatusRequest{Status: model.UserStatusApproved})
	require.NoError(t, err)

	tokens, err := env.users.Login(ctx, LoginRequest{Email: "casey@pharmacy.test", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.Token)
	require.NotEmpty(t, tokens.RefreshToken)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Signup(ctx, SignupRequest{Username: "a", Email: "dup@pharmacy.test", Password: "secret123", Role: model.RolePharmacist})
	require.NoError(t, err)

	_, err = env.users.Signup(ctx, SignupRequest{Username: "b", Email: "DUP@pharmacy.test", Password: "secret123", Role: model.RolePharmacist})
	require.True(t, apperror.Is(err, apperror.CodeConflict))
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Signup(ctx, SignupRequest{Username: "sam", Email: "sam@pharmacy.test", Password: "secret123", Role: model.RolePharmacist})
	require.NoError(t, err)

	_, err = env.users.Login(ctx, LoginRequest{Email: "sam@pharmacy.test", Password: "wrong"})
	require.True(t, apperror.Is(err, apperror.CodeAuth))
}

func TestRefreshTokenRotates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Signup(ctx, SignupRequest{Username: "sam", Email: "sam@pharmacy.test", Password: "secret123", Role: model.RolePharmacist})
	require.NoError(t, err)
	tokens, err := env.users.Login(ctx, LoginRequest{Email: "sam@pharmacy.test", Password: "secret123"})
	require.NoError(t, err)

	rotated, err := env.users.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The consumed token is gone.
	_, err = env.users.RefreshToken(ctx, RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.True(t, apperror.Is(err, apperror.CodeAuth))
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Signup(ctx, SignupRequest{Username: "sam", Email: "sam@pharmacy.test", Password: "secret123", Role: model.RolePharmacist})
	require.NoError(t, err)

	err = env.users.ChangePassword(ctx, user.ID.String(), ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newsecret"})
	require.True(t, apperror.Is(err, apperror.CodeAuth))

	require.NoError(t, env.users.ChangePassword(ctx, user.ID.String(), ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "newsecret"}))

	_, err = env.users.Login(ctx, LoginRequest{Email: "sam@pharmacy.test", Password: "newsecret"})
	require.NoError(t, err)
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, err := env.users.Signup(ctx, SignupRequest{Username: "root", Email: "admin@pharmacy.test", Password: "secret123", Role: model.RoleAdmin})
	require.NoError(t, err)

	err = env.users.DeleteUser(ctx, admin.ID.String(), admin.ID.String())
	require.True(t, apperror.Is(err, apperror.CodeValidation))

	other, err := env.users.Signup(ctx, SignupRequest{Username: "sam", Email: "sam@pharmacy.test", Password: "secret123", Role: model.RolePharmacist})
	require.NoError(t, err)
	require.NoError(t, env.users.DeleteUser(ctx, admin.ID.String(), other.ID.String()))

	_, err = env.users.GetUserByID(ctx, other.ID.String())
	require.True(t, apperror.Is(err, apperror.CodeNotFound))
}
