package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

const testSecret = "test-secret"

type memoryRevoker struct {
	revoked map[string]time.Duration
}

func (m *memoryRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	m.revoked[jti] = ttl
	return nil
}

func (m *memoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

func validRegistration() types.RegisterRequest {
	return types.RegisterRequest{
		Email:     "vasya@example.com",
		Username:  "vasya.pupkin",
		FirstName: "Vasya",
		LastName:  "Pupkin",
		Password:  "Qwerty123",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db, testSecret, time.Hour, nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "Qwerty123", user.PasswordHash)

	token, err := svc.Login(ctx, types.LoginRequest{Email: "vasya@example.com", Password: "Qwerty123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "vasya.pupkin", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestRegisterValidation(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db, testSecret, time.Hour, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*types.RegisterRequest)
		field  string
	}{
		{"taken email", func(r *types.RegisterRequest) { r.Username = "other" }, "email"},
		{"taken username", func(r *types.RegisterRequest) { r.Email = "other@example.com" }, "username"},
		{"bad email", func(r *types.RegisterRequest) { r.Email = "nope" }, "email"},
		{"bad username", func(r *types.RegisterRequest) { r.Username = "has space" }, "username"},
		{"short password", func(r *types.RegisterRequest) { r.Password = "short" }, "password"},
		{"missing first name", func(r *types.RegisterRequest) { r.FirstName = "" }, "first_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.mutate(&req)
			_, err := svc.Register(ctx, req)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db, testSecret, time.Hour, nil)
	ctx := context.Background()
	testhelpers.CreateUser(t, db, "known")

	_, err := svc.Login(ctx, types.LoginRequest{Email: "known@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = svc.Login(ctx, types.LoginRequest{Email: "unknown@example.com", Password: testhelpers.TestPassword})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = svc.Login(ctx, types.LoginRequest{Email: "known@example.com", Password: testhelpers.TestPassword})
	assert.NoError(t, err)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db, testSecret, time.Hour, nil)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "jwt")

	other := service.NewAuthService(db, "another-secret", time.Hour, nil)
	foreign, err := other.GenerateToken(user)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, foreign)
	assert.Error(t, err)

	expired := service.NewAuthService(db, testSecret, -time.Minute, nil)
	stale, err := expired.GenerateToken(user)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, stale)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": user.ID})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(ctx, unsigned)
	assert.Error(t, err)

	_, err = svc.ValidateToken(ctx, "garbage")
	assert.Error(t, err)
}

func TestLogoutRevokesToken(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	revoker := &memoryRevoker{revoked: map[string]time.Duration{}}
	svc := service.NewAuthService(db, testSecret, time.Hour, revoker)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "leaver")

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	assert.Greater(t, revoker.revoked[claims.ID], time.Duration(0))

	_, err = svc.ValidateToken(ctx, token)
	assert.Error(t, err)
}

func TestSetPassword(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewAuthService(db, testSecret, time.Hour, nil)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, db, "changer")

	err := svc.SetPassword(ctx, user.ID, types.SetPasswordRequest{CurrentPassword: "wrong", NewPassword: "n3w-password"})
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "current_password")

	require.NoError(t, svc.SetPassword(ctx, user.ID, types.SetPasswordRequest{
		CurrentPassword: testhelpers.TestPassword,
		NewPassword:     "n3w-password",
	}))

	_, err = svc.Login(ctx, types.LoginRequest{Email: user.Email, Password: testhelpers.TestPassword})
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = svc.Login(ctx, types.LoginRequest{Email: user.Email, Password: "n3w-password"})
	assert.NoError(t, err)
}

func TestRedisTokenRevoker(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	revoker := service.NewRedisTokenRevoker(client)
	ctx := context.Background()

	revoked, err := revoker.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, revoker.Revoke(ctx, "abc", time.Minute))
	revoked, err = revoker.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl, err := client.TTL(ctx, "auth:revoked:abc").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
