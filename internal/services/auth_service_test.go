package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"ourskilllab/internal/models"
	"ourskilllab/internal/repositories/interfaces"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"
	"ourskilllab/pkg/cache"
	"ourskilllab/pkg/logger"
	"ourskilllab/pkg/otp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type authFixture struct {
	users    *mockUserRepo
	notifier *mockNotifier
	cache    CacheService
	service  AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    &mockUserRepo{},
		notifier: &mockNotifier{},
		cache:    NewCacheService(cache.NewMemoryCache(), "test", time.Hour, logger.NewNop()),
	}
	store := otp.NewMemoryStore(otp.WithCodeGenerator(func() (string, error) { return "123456", nil }))
	f.service = NewAuthService(f.users, store, f.notifier, f.cache, AuthConfig{
		JWTSecret:  testSecret,
		TokenTTL:   time.Hour,
		OTPTTL:     10 * time.Minute,
		BcryptCost: bcrypt.MinCost,
	}, nil, logger.NewNop())
	return f
}

func TestRegisterHashesPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.On("ExistsByEmailOrMobile", ctx, "ada@example.com", "+15551234567").Return(false, nil)
	f.users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

	user, err := f.service.Register(ctx, &validators.RegisterRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Mobile:   "+15551234567",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "correct horse", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("correct horse")))
	f.users.AssertExpectations(t)
}

func TestRegisterRejectsExistingUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.On("ExistsByEmailOrMobile", ctx, "ada@example.com", "+15551234567").Return(true, nil)

	_, err := f.service.Register(ctx, &validators.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Mobile: "+15551234567", Password: "correct horse",
	})
	assert.True(t, utils.IsKind(err, utils.KindConflict))
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRequestMobileOTPUnknownUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.On("GetByMobile", ctx, "+15551234567").Return(nil, interfaces.ErrNotFound)

	_, err := f.service.RequestMobileOTP(ctx, "+15551234567")
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
	assert.Equal(t, "User not found", appMessage(err))
	f.notifier.AssertNotCalled(t, "SendMobileOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMobileOTPLoginFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := &models.User{ID: primitive.NewObjectID(), Name: "Ada", Email: "ada@example.com", Mobile: "+15551234567", Role: models.RoleUser}

	f.users.On("GetByMobile", ctx, user.Mobile).Return(user, nil)
	f.notifier.On("SendMobileOTP", ctx, user.Mobile, "123456", 10*time.Minute).Return(nil)

	sent, err := f.service.RequestMobileOTP(ctx, user.Mobile)
	require.NoError(t, err)
	assert.Equal(t, "sms", sent.Channel)

	_, err = f.service.VerifyMobileOTP(ctx, user.Mobile, "000000")
	assert.True(t, utils.IsKind(err, utils.KindInvalid))

	session, err := f.service.VerifyMobileOTP(ctx, user.Mobile, "123456")
	require.NoError(t, err)
	assert.Equal(t, user, session.User)
	assert.Equal(t, "Bearer", session.TokenType)

	principal, err := f.service.Authenticate(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, models.RoleUser, principal.Role)

	// The code is single use.
	_, err = f.service.VerifyMobileOTP(ctx, user.Mobile, "123456")
	assert.True(t, utils.IsKind(err, utils.KindInvalid))
}

func TestRequestEmailOTPDeliveryFailure(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := &models.User{ID: primitive.NewObjectID(), Email: "ada@example.com", Role: models.RoleUser}

	f.users.On("GetByEmail", ctx, user.Email).Return(user, nil)
	f.notifier.On("SendEmailOTP", ctx, user.Email, "123456", 10*time.Minute).Return(errors.New("smtp down"))

	_, err := f.service.RequestEmailOTP(ctx, user.Email)
	assert.True(t, utils.IsKind(err, utils.KindUpstreamFailure))

	// The issued code survives a delivery failure.
	_, err = f.service.VerifyEmailOTP(ctx, user.Email, "123456")
	require.NoError(t, err)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	userID := primitive.NewObjectID()

	f.users.On("GetByID", ctx, userID).Return(&models.User{ID: userID, Role: models.RoleAdmin}, nil)
	token, err := utils.GenerateAccessToken(userID, string(models.RoleAdmin), "admin@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	principal, err := f.service.Authenticate(ctx, token.Token)
	require.NoError(t, err)
	assert.True(t, principal.IsAdmin())

	require.NoError(t, f.service.Logout(ctx, principal))

	_, err = f.service.Authenticate(ctx, token.Token)
	assert.True(t, utils.IsKind(err, utils.KindNotAuthenticated))
}

func TestAuthenticateUsesStoredRoleForAdminTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	demoted := primitive.NewObjectID()
	removed := primitive.NewObjectID()

	f.users.On("GetByID", ctx, demoted).Return(&models.User{ID: demoted, Role: models.RoleUser}, nil)
	f.users.On("GetByID", ctx, removed).Return(nil, interfaces.ErrNotFound)

	token, err := utils.GenerateAccessToken(demoted, string(models.RoleAdmin), "", testSecret, time.Hour)
	require.NoError(t, err)
	principal, err := f.service.Authenticate(ctx, token.Token)
	require.NoError(t, err)
	assert.False(t, principal.IsAdmin())

	token, err = utils.GenerateAccessToken(removed, string(models.RoleAdmin), "", testSecret, time.Hour)
	require.NoError(t, err)
	_, err = f.service.Authenticate(ctx, token.Token)
	assert.True(t, utils.IsKind(err, utils.KindNotAuthenticated))
}

func TestAuthenticateRejectsUnknownRole(t *testing.T) {
	f := newAuthFixture(t)

	token, err := utils.GenerateAccessToken(primitive.NewObjectID(), "superuser", "", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = f.service.Authenticate(context.Background(), token.Token)
	assert.True(t, utils.IsKind(err, utils.KindNotAuthenticated))
}

func TestMeReportsAdmin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	principal := adminPrincipal()

	f.users.On("GetByID", ctx, principal.UserID).Return(&models.User{ID: principal.UserID, Role: models.RoleAdmin}, nil)

	me, err := f.service.Me(ctx, principal)
	require.NoError(t, err)
	assert.True(t, me.IsAdmin)
}
