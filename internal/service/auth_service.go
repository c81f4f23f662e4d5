package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"communityhub/internal/cache"
	"communityhub/internal/mailer"
	"communityhub/internal/middleware"
	"communityhub/internal/models"
	"communityhub/internal/repository"
	"communityhub/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	VerificationCodeTTL = 15 * time.Minute
	ResetCodeTTL        = time.Hour
)

type AuthService struct {
	userRepo repository.UserRepository
	mail     mailer.Mailer
	tokens   *middleware.TokenManager
	now      func() time.Time
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Country  string
}

func NewAuthService(userRepo repository.UserRepository, mail mailer.Mailer, tokens *middleware.TokenManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		mail:     mail,
		tokens:   tokens,
		now:      time.Now,
	}
}

// HashPassword bcrypt-hashes a plain password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// newCode returns a random 6-digit code.
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func codesMatch(stored *string, expires *time.Time, given string, now time.Time) bool {
	if stored == nil || expires == nil || now.After(*expires) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(given)) == 1
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	email := repository.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	country, err := validation.NormalizeCountry(in.Country)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	code, err := newCode()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(VerificationCodeTTL)

	user := &models.User{
		Name:                  name,
		Email:                 email,
		Password:              hash,
		Country:               country,
		VerificationCode:      &code,
		VerificationExpiresAt: &expires,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, storeErr("Registration failed", err)
	}

	s.send(ctx, mailer.VerificationEmail(user.Email, user.Name, code))
	return user, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewValidationError("Invalid verification code")
		}
		return storeErr("Verification failed", err)
	}
	if user.IsVerified {
		return models.NewValidationError("Email already verified")
	}
	if !codesMatch(user.VerificationCode, user.VerificationExpiresAt, strings.TrimSpace(code), s.now()) {
		return models.NewValidationError("Invalid verification code")
	}

	return storeErr("Verification failed", s.userRepo.UpdateFields(ctx, user.ID, map[string]any{
		"is_verified":             true,
		"verification_code":       nil,
		"verification_expires_at": nil,
	}))
}

func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return storeErr("Failed to resend code", err)
	}
	if user.IsVerified {
		return models.NewValidationError("Email already verified")
	}

	code, err := newCode()
	if err != nil {
		return err
	}
	expires := s.now().Add(VerificationCodeTTL)
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]any{
		"verification_code":       code,
		"verification_expires_at": expires,
	}); err != nil {
		return storeErr("Failed to resend code", err)
	}

	s.send(ctx, mailer.VerificationEmail(user.Email, user.Name, code))
	return nil
}

// Login checks credentials and returns a signed token with the user.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return "", nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return "", nil, storeErr("Login failed", err)
	}
	if !checkPassword(user.Password, password) {
		return "", nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if !user.IsVerified {
		return "", nil, models.NewUnauthorizedError("Please verify your email first")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", nil, models.NewInternalError(err)
	}
	return token, user, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *middleware.TokenClaims) error {
	if claims == nil || claims.JTI == "" {
		return nil
	}
	rdb := cache.GetClient()
	if rdb == nil {
		middleware.Logger.WarnContext(ctx, "token revocation skipped, redis unavailable")
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := rdb.Set(ctx, middleware.RevokedTokenKey(claims.JTI), "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// IsRevoked reports whether jti was logged out. Without Redis nothing is revoked.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	rdb := cache.GetClient()
	if rdb == nil || jti == "" {
		return false, nil
	}
	n, err := rdb.Exists(ctx, middleware.RevokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ForgotPassword issues a reset code for known addresses and is silent otherwise.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil
		}
		return storeErr("Failed to process request", err)
	}

	code, err := newCode()
	if err != nil {
		return err
	}
	expires := s.now().Add(ResetCodeTTL)
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]any{
		"reset_token":            code,
		"reset_token_expires_at": expires,
	}); err != nil {
		return storeErr("Failed to process request", err)
	}

	s.send(ctx, mailer.PasswordResetEmail(user.Email, code))
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email, token, password string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return models.NewValidationError(err.Error())
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewValidationError("Invalid reset code")
		}
		return storeErr("Failed to reset password", err)
	}
	if !codesMatch(user.ResetToken, user.ResetTokenExpiresAt, strings.TrimSpace(token), s.now()) {
		return models.NewValidationError("Invalid reset code")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return storeErr("Failed to reset password", s.userRepo.UpdateFields(ctx, user.ID, map[string]any{
		"password":               hash,
		"reset_token":            nil,
		"reset_token_expires_at": nil,
	}))
}

// send delivers msg; failures are logged only.
func (s *AuthService) send(ctx context.Context, msg mailer.Message) {
	if s.mail == nil {
		return
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		middleware.Logger.WarnContext(ctx, "email delivery failed",
			slog.String("template", msg.Template), slog.String("error", err.Error()))
	}
}
