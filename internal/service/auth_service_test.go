package service

import (
	"context"
	"testing"
	"time"

	"perfreview/internal/entity"
	"perfreview/internal/utils"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*AuthService, *memUserRepo, *memSessionRepo) {
	t.Helper()
	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	svc := NewAuthService(
		users,
		sessions,
		&memEventRepo{},
		BcryptPasswordHasher{Cost: 4},
		utils.JWTManager{Secret: []byte("test-secret"), Issuer: "test", TokenTTL: 2 * time.Hour},
		NewTOTPEngine("Performance Review System"),
		RealClock{},
	)
	return svc, users, sessions
}

func registerUser(t *testing.T, svc *AuthService, email, password string) uuid.UUID {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: "Alice",
		LastName:  "Doe",
		JobTitle:  "Engineer",
	})
	require.NoError(t, err)
	return user.ID
}

func TestAuthenticateSuccess(t *testing.T) {
	svc, users, sessions := newTestService(t)
	userID := registerUser(t, svc, "alice@example.com", "Secret123!")

	outcome, err := svc.Authenticate(context.Background(), "alice@example.com", "Secret123!", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, outcome.Grant)
	assert.Nil(t, outcome.Challenge)
	assert.NotEmpty(t, outcome.Grant.Token)
	assert.Equal(t, 2*time.Hour, outcome.Grant.ExpiresIn)
	assert.Equal(t, "alice@example.com", outcome.Grant.User.Email)

	// one live session backs the token
	session, err := sessions.FindByTokenHash(context.Background(), utils.HashToken(outcome.Grant.Token))
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, userID, session.UserID)

	user, err := users.FindByID(context.Background(), userID)
	require.NoError(t, err)
	assert.NotNil(t, user.LastLoginAt)
}

func TestAuthenticateDoesNotRevealAccountExistence(t *testing.T) {
	svc, _, _ := newTestService(t)
	registerUser(t, svc, "alice@example.com", "Secret123!")

	_, errWrongPassword := svc.Authenticate(context.Background(), "alice@example.com", "nope", nil, nil)
	_, errUnknownEmail := svc.Authenticate(context.Background(), "nobody@example.com", "nope", nil, nil)

	assert.ErrorIs(t, errWrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknownEmail, ErrInvalidCredentials)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	svc, users, _ := newTestService(t)
	userID := registerUser(t, svc, "alice@example.com", "Secret123!")
	require.NoError(t, users.Deactivate(context.Background(), userID))

	_, err := svc.Authenticate(context.Background(), "alice@example.com", "Secret123!", nil, nil)
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestAuthenticateMissingInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Authenticate(context.Background(), "", "password", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Authenticate(context.Background(), "alice@example.com", "", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	registerUser(t, svc, "alice@example.com", "Secret123!")

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:     "alice@example.com",
		Password:  "Other456!",
		FirstName: "Other",
		LastName:  "Person",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestTwoFactorLoginProtocol(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := registerUser(t, svc, "alice@example.com", "Secret123!")
	ctx := context.Background()

	// first login: no 2FA, token T1
	outcome, err := svc.Authenticate(ctx, "alice@example.com", "Secret123!", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, outcome.Grant)
	tokenT1 := outcome.Grant.Token

	// enroll: generated secret is not persisted until proven
	setup, err := svc.GenerateTwoFactorSecret("alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, setup.ProvisioningURI, "otpauth://totp/")

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.EnableTwoFactor(ctx, userID, setup.Secret, code))

	// password login now yields a challenge and no token
	outcome, err = svc.Authenticate(ctx, "alice@example.com", "Secret123!", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, outcome.Challenge)
	assert.Nil(t, outcome.Grant)
	assert.Equal(t, userID, outcome.Challenge.UserID)

	// completing the challenge mints a fresh token
	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	grant, err := svc.VerifyTwoFactorAndAuthenticate(ctx, outcome.Challenge.UserID, code, nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, grant.Token)
	assert.NotEqual(t, tokenT1, grant.Token)
}

func TestEnableTwoFactorRejectsForeignSecret(t *testing.T) {
	svc, users, _ := newTestService(t)
	userID := registerUser(t, svc, "alice@example.com", "Secret123!")
	ctx := context.Background()

	issued, err := svc.GenerateTwoFactorSecret("alice@example.com")
	require.NoError(t, err)
	other, err := svc.GenerateTwoFactorSecret("alice@example.com")
	require.NoError(t, err)

	// code from a different secret than the one being enabled
	code, err := totp.GenerateCode(other.Secret, time.Now())
	require.NoError(t, err)
	err = svc.EnableTwoFactor(ctx, userID, issued.Secret, code)
	assert.ErrorIs(t, err, ErrInvalid2FACode)

	// nothing was persisted by the failed attempt
	user, err := users.FindByID(ctx, userID)
	require.NoError(t, err)
	assert.False(t, user.TwoFAEnabled)
	assert.Nil(t, user.TwoFASecret)
}

func TestVerifyTwoFactorWithoutSetup(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := registerUser(t, svc, "alice@example.com", "Secret123!")

	_, err := svc.VerifyTwoFactorAndAuthenticate(context.Background(), userID, "123456", nil, nil)
	assert.ErrorIs(t, err, ErrInvalid2FASetup)

	_, err = svc.VerifyTwoFactorAndAuthenticate(context.Background(), uuid.New(), "123456", nil, nil)
	assert.ErrorIs(t, err, ErrInvalid2FASetup)
}

func TestDisableTwoFactorRevokesSessions(t *testing.T) {
	svc, users, sessions := newTestService(t)
	userID := registerUser(t, svc, "alice@example.com", "Secret123!")
	ctx := context.Background()

	setup, err := svc.GenerateTwoFactorSecret("alice@example.com")
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.EnableTwoFactor(ctx, userID, setup.Secret, code))

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	_, err = svc.VerifyTwoFactorAndAuthenticate(ctx, userID, code, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1, sessions.count())

	err = svc.DisableTwoFactor(ctx, userID, "wrong-password", nil)
	assert.ErrorIs(t, err, ErrInvalidPassword)
	assert.Equal(t, 1, sessions.count())

	require.NoError(t, svc.DisableTwoFactor(ctx, userID, "Secret123!", nil))
	assert.Equal(t, 0, sessions.count())

	user, err := users.FindByID(ctx, userID)
	require.NoError(t, err)
	assert.False(t, user.TwoFAEnabled)
	assert.Nil(t, user.TwoFASecret)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc, _, sessions := newTestService(t)
	userID := registerUser(t, svc, "alice@example.com", "Secret123!")
	ctx := context.Background()

	outcome, err := svc.Authenticate(ctx, "alice@example.com", "Secret123!", nil, nil)
	require.NoError(t, err)
	token := outcome.Grant.Token
	require.Equal(t, 1, sessions.count())

	err = svc.ChangePassword(ctx, userID, "wrong", "NewSecret456!")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	err = svc.ChangePassword(ctx, uuid.New(), "Secret123!", "NewSecret456!")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, svc.ChangePassword(ctx, userID, "Secret123!", "NewSecret456!"))

	// the pre-captured token no longer resolves to a session even though
	// its signature and expiry are still valid
	session, err := sessions.FindByTokenHash(ctx, utils.HashToken(token))
	require.NoError(t, err)
	assert.Nil(t, session)

	// old password no longer works, new one does
	_, err = svc.Authenticate(ctx, "alice@example.com", "Secret123!", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	outcome, err = svc.Authenticate(ctx, "alice@example.com", "NewSecret456!", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, outcome.Grant)
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _, sessions := newTestService(t)
	userID := registerUser(t, svc, "alice@example.com", "Secret123!")
	ctx := context.Background()

	outcome, err := svc.Authenticate(ctx, "alice@example.com", "Secret123!", nil, nil)
	require.NoError(t, err)
	token := outcome.Grant.Token

	require.NoError(t, svc.Logout(ctx, token, &userID, nil))
	assert.Equal(t, 0, sessions.count())

	// second logout with the same token still succeeds
	require.NoError(t, svc.Logout(ctx, token, &userID, nil))
}

func TestConcurrentLoginsProduceIndependentSessions(t *testing.T) {
	svc, _, sessions := newTestService(t)
	registerUser(t, svc, "alice@example.com", "Secret123!")
	ctx := context.Background()

	first, err := svc.Authenticate(ctx, "alice@example.com", "Secret123!", nil, nil)
	require.NoError(t, err)
	second, err := svc.Authenticate(ctx, "alice@example.com", "Secret123!", nil, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.Grant.Token, second.Grant.Token)
	assert.Equal(t, 2, sessions.count())
}

func sessionRow(userID uuid.UUID, tokenHash string, expiresAt time.Time) *entity.Session {
	return &entity.Session{
		UserID:         userID,
		TokenHash:      tokenHash,
		ExpiresAt:      expiresAt,
		LastActivityAt: time.Now(),
	}
}

func TestExpiredSessionIsInvisibleAndSwept(t *testing.T) {
	svc, _, sessions := newTestService(t)
	userID := registerUser(t, svc, "alice@example.com", "Secret123!")
	ctx := context.Background()

	expired := utils.HashToken("stale-token")
	require.NoError(t, sessions.Create(ctx, sessionRow(userID, expired, time.Now().Add(-time.Minute))))
	live := utils.HashToken("live-token")
	require.NoError(t, sessions.Create(ctx, sessionRow(userID, live, time.Now().Add(2*time.Hour))))

	found, err := sessions.FindByTokenHash(ctx, expired)
	require.NoError(t, err)
	assert.Nil(t, found)

	removed, err := svc.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, sessions.count())
}
