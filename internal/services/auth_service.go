package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ourskilllab/internal/models"
	"ourskilllab/internal/repositories/interfaces"
	"ourskilllab/internal/utils"
	"ourskilllab/internal/validators"
	"ourskilllab/pkg/logger"
	"ourskilllab/pkg/metrics"
	"ourskilllab/pkg/otp"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, request *validators.RegisterRequest) (*models.User, error)

	// OTP login
	RequestMobileOTP(ctx context.Context, mobile string) (*OTPResponse, error)
	RequestEmailOTP(ctx context.Context, email string) (*OTPResponse, error)
	VerifyMobileOTP(ctx context.Context, mobile, code string) (*AuthResponse, error)
	VerifyEmailOTP(ctx context.Context, email, code string) (*AuthResponse, error)

	// Session
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
	Logout(ctx context.Context, principal *models.Principal) error
	Me(ctx context.Context, principal *models.Principal) (*MeResponse, error)
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	OTPTTL     time.Duration
	BcryptCost int
}

type authService struct {
	userRepo interfaces.UserRepository
	otpStore otp.Store
	notifier NotificationService
	cache    CacheService
	config   AuthConfig
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

type OTPResponse struct {
	Channel   string    `json:"channel"`
	Recipient string    `json:"recipient"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

type MeResponse struct {
	User    *models.User `json:"user"`
	IsAdmin bool         `json:"is_admin"`
}

func NewAuthService(
	userRepo interfaces.UserRepository,
	otpStore otp.Store,
	notifier NotificationService,
	cache CacheService,
	config AuthConfig,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) AuthService {
	if config.TokenTTL <= 0 {
		config.TokenTTL = utils.JWTAccessTokenTTL
	}
	if config.OTPTTL <= 0 {
		config.OTPTTL = otp.DefaultTTL
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		userRepo: userRepo,
		otpStore: otpStore,
		notifier: notifier,
		cache:    cache,
		config:   config,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, request *validators.RegisterRequest) (*models.User, error) {
	exists, err := s.userRepo.ExistsByEmailOrMobile(ctx, request.Email, request.Mobile)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, utils.Conflict("User with this email or mobile already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		Name:            request.Name,
		Email:           request.Email,
		Mobile:          request.Mobile,
		Password:        string(hash),
		Role:            models.RoleUser,
		EnrolledCourses: []primitive.ObjectID{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, utils.Conflict("User with this email or mobile already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.LogUserAction(user.ID, "register", nil)
	return user, nil
}

func (s *authService) RequestMobileOTP(ctx context.Context, mobile string) (*OTPResponse, error) {
	if strings.TrimSpace(mobile) == "" {
		return nil, utils.Invalid("Mobile number is required")
	}
	if _, err := s.findUser(ctx, s.userRepo.GetByMobile, mobile); err != nil {
		return nil, err
	}

	code, err := s.otpStore.Issue(ctx, mobileIdentifier(mobile))
	if err != nil {
		return nil, fmt.Errorf("failed to issue otp: %w", err)
	}
	s.metrics.OTPIssued("sms")

	// The code stays valid when delivery fails so a retry of the send can
	// reuse the same request window.
	if err := s.notifier.SendMobileOTP(ctx, mobile, code, s.config.OTPTTL); err != nil {
		return nil, utils.Upstream("Failed to send OTP", err)
	}

	return &OTPResponse{
		Channel:   "sms",
		Recipient: utils.MaskPhone(mobile),
		ExpiresAt: time.Now().UTC().Add(s.config.OTPTTL),
	}, nil
}

func (s *authService) RequestEmailOTP(ctx context.Context, email string) (*OTPResponse, error) {
	if strings.TrimSpace(email) == "" {
		return nil, utils.Invalid("Email is required")
	}
	if _, err := s.findUser(ctx, s.userRepo.GetByEmail, email); err != nil {
		return nil, err
	}

	code, err := s.otpStore.Issue(ctx, emailIdentifier(email))
	if err != nil {
		return nil, fmt.Errorf("failed to issue otp: %w", err)
	}
	s.metrics.OTPIssued("email")

	if err := s.notifier.SendEmailOTP(ctx, email, code, s.config.OTPTTL); err != nil {
		return nil, utils.Upstream("Failed to send OTP", err)
	}

	return &OTPResponse{
		Channel:   "email",
		Recipient: utils.MaskEmail(email),
		ExpiresAt: time.Now().UTC().Add(s.config.OTPTTL),
	}, nil
}

func (s *authService) VerifyMobileOTP(ctx context.Context, mobile, code string) (*AuthResponse, error) {
	if err := s.verifyCode(ctx, "sms", mobileIdentifier(mobile), code); err != nil {
		return nil, err
	}
	user, err := s.findUser(ctx, s.userRepo.GetByMobile, mobile)
	if err != nil {
		return nil, err
	}
	return s.issueSession(user)
}

func (s *authService) VerifyEmailOTP(ctx context.Context, email, code string) (*AuthResponse, error) {
	if err := s.verifyCode(ctx, "email", emailIdentifier(email), code); err != nil {
		return nil, err
	}
	user, err := s.findUser(ctx, s.userRepo.GetByEmail, email)
	if err != nil {
		return nil, err
	}
	return s.issueSession(user)
}

func (s *authService) verifyCode(ctx context.Context, channel, identifier, code string) error {
	err := s.otpStore.Verify(ctx, identifier, code)
	switch {
	case err == nil:
		s.metrics.OTPVerified(channel, "success")
		return nil
	case errors.Is(err, otp.ErrExpired):
		s.metrics.OTPVerified(channel, "expired")
		return utils.Invalid("OTP has expired")
	case errors.Is(err, otp.ErrMismatch):
		s.metrics.OTPVerified(channel, "mismatch")
		s.logger.LogSecurityEvent("otp_mismatch", "low", map[string]interface{}{"channel": channel})
		return utils.Invalid("Invalid OTP")
	case errors.Is(err, otp.ErrNotFound):
		s.metrics.OTPVerified(channel, "not_found")
		return utils.Invalid("Invalid or expired OTP")
	default:
		return fmt.Errorf("failed to verify otp: %w", err)
	}
}

func (s *authService) issueSession(user *models.User) (*AuthResponse, error) {
	token, err := utils.GenerateAccessToken(user.ID, string(user.Role), user.Email, s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return nil, utils.Internal("Failed to create session", err)
	}

	s.logger.LogUserAction(user.ID, "login", nil)
	return &AuthResponse{
		User:        user,
		AccessToken: token.Token,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := utils.ValidateToken(token, s.config.JWTSecret)
	if err != nil {
		return nil, utils.NotAuthenticated("Not authenticated")
	}

	role := models.Role(claims.Role)
	if !role.IsValid() || claims.UserID.IsZero() {
		return nil, utils.NotAuthenticated("Not authenticated")
	}

	revoked, err := s.cache.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		// Fail open: a cache outage must not lock every user out.
		s.logger.WithError(err).Warn("Failed to check token revocation")
	} else if revoked {
		return nil, utils.NotAuthenticated("Not authenticated")
	}

	if role == models.RoleAdmin {
		if role, err = s.storedRole(ctx, claims.UserID); err != nil {
			return nil, err
		}
	}

	principal := &models.Principal{
		UserID:  claims.UserID,
		Role:    role,
		Email:   claims.Email,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

// storedRole re-reads the role for admin tokens so a demotion takes effect
// before the token expires.
func (s *authService) storedRole(ctx context.Context, userID primitive.ObjectID) (models.Role, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return "", utils.NotAuthenticated("Not authenticated")
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	return user.Role, nil
}

func (s *authService) Logout(ctx context.Context, principal *models.Principal) error {
	if principal == nil {
		return utils.NotAuthenticated("Not authenticated")
	}
	if err := s.cache.RevokeToken(ctx, principal.TokenID, principal.ExpiresAt); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.logger.LogUserAction(principal.UserID, "logout", nil)
	return nil
}

func (s *authService) Me(ctx context.Context, principal *models.Principal) (*MeResponse, error) {
	if principal == nil {
		return nil, utils.NotAuthenticated("Not authenticated")
	}
	user, err := s.userRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &MeResponse{User: user, IsAdmin: user.Role == models.RoleAdmin}, nil
}

func (s *authService) findUser(ctx context.Context, lookup func(context.Context, string) (*models.User, error), value string) (*models.User, error) {
	user, err := lookup(ctx, value)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFound("User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func mobileIdentifier(mobile string) string {
	return "mobile:" + mobile
}

func emailIdentifier(email string) string {
	return "email:" + email
}
