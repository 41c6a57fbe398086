package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facilityops/incident-service/internal/config"
	"github.com/facilityops/incident-service/internal/domain"
	apperrors "github.com/facilityops/incident-service/pkg/util/errorutil"
)

func newAuth(f *fixture) *AuthService {
	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTLMinutes = 15
	cfg.Auth.BcryptCost = 4
	return NewAuthService(cfg, f.store.Accounts(), f.store.Vendors())
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(f)

	account, err := svc.RegisterAccount(context.Background(), RegisterAccountInput{
		Name:     "Dana Ops",
		Email:    "Dana@Example.com",
		Password: "hunter2hunter2",
		Role:     domain.RoleControl,
	})
	require.NoError(t, err)
	require.Equal(t, "dana@example.com", account.Email)
	require.Equal(t, domain.AccountStatusActive, account.Status)
	require.NotEqual(t, "hunter2hunter2", account.PasswordHash)

	logged, token, expiresAt, err := svc.Login(context.Background(), "dana@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.Equal(t, account.ID, logged.ID)
	require.False(t, expiresAt.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, account.ID, claims.SubjectID)
	require.Equal(t, domain.RoleControl, claims.Role)
}

func TestRegisterVendorAccount(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(f)

	v := vendorID
	account, err := svc.RegisterAccount(context.Background(), RegisterAccountInput{
		Name:     "Acme Dispatcher",
		Email:    "dispatch@acme.test",
		Password: "s3cret-s3cret",
		Role:     domain.RoleVendor,
		VendorID: &v,
	})
	require.NoError(t, err)
	require.NotNil(t, account.VendorID)
	require.Equal(t, vendorID, *account.VendorID)

	_, token, _, err := svc.Login(context.Background(), "dispatch@acme.test", "s3cret-s3cret")
	require.NoError(t, err)
	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.VendorID)
	require.Equal(t, vendorID, *claims.VendorID)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(f)

	_, err := svc.RegisterAccount(context.Background(), RegisterAccountInput{
		Email: "x@y.test",
		Role:  domain.RoleReporter,
	})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	// Vendor role without a vendor reference.
	_, err = svc.RegisterAccount(context.Background(), RegisterAccountInput{
		Email:    "x@y.test",
		Password: "pw",
		Role:     domain.RoleVendor,
	})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	// Reporter carrying a vendor reference.
	v := vendorID
	_, err = svc.RegisterAccount(context.Background(), RegisterAccountInput{
		Email:    "x@y.test",
		Password: "pw",
		Role:     domain.RoleReporter,
		VendorID: &v,
	})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	unknown := "6f000000-0000-0000-0000-00000000dead"
	_, err = svc.RegisterAccount(context.Background(), RegisterAccountInput{
		Email:    "x@y.test",
		Password: "pw",
		Role:     domain.RoleVendor,
		VendorID: &unknown,
	})
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(f)

	input := RegisterAccountInput{
		Email:    "dup@example.com",
		Password: "pw-pw-pw",
		Role:     domain.RoleReporter,
	}
	_, err := svc.RegisterAccount(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.RegisterAccount(context.Background(), input)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(f)

	_, err := svc.RegisterAccount(context.Background(), RegisterAccountInput{
		Email:    "dana@example.com",
		Password: "correct-horse",
		Role:     domain.RoleControl,
	})
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "dana@example.com", "wrong-password")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	_, _, _, err = svc.Login(context.Background(), "nobody@example.com", "correct-horse")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(f)

	account, err := svc.RegisterAccount(context.Background(), RegisterAccountInput{
		Email:    "dana@example.com",
		Password: "old-password",
		Role:     domain.RoleControl,
	})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), account.ID, "wrong", "new-password")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	err = svc.ChangePassword(context.Background(), account.ID, "old-password", "new-password")
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "dana@example.com", "old-password")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	_, _, _, err = svc.Login(context.Background(), "dana@example.com", "new-password")
	require.NoError(t, err)
}
