package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"communityhub/internal/middleware"
	"communityhub/internal/models"
	"communityhub/internal/repository"
	"communityhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var sixDigits = regexp.MustCompile(`\b\d{6}\b`)

func newAuthService(t *testing.T) (*AuthService, *gorm.DB, *testutil.RecordingMailer) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	mail := &testutil.RecordingMailer{}
	tokens := middleware.NewTokenManager("test-secret-that-is-long-enough-123456", time.Hour)
	return NewAuthService(repository.NewUserRepository(db), mail, tokens), db, mail
}

func lastCode(t *testing.T, mail *testutil.RecordingMailer) string {
	t.Helper()
	msg, ok := mail.Last()
	require.True(t, ok, "expected an email")
	code := sixDigits.FindString(msg.Text)
	require.NotEmpty(t, code)
	return code
}

func TestAuthService_RegisterVerifyLogin(t *testing.T) {
	svc, _, mail := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Kofi", Email: "Kofi@Example.com", Password: "password1", Country: "gh"})
	require.NoError(t, err)
	assert.Equal(t, "kofi@example.com", user.Email)
	assert.Equal(t, "GH", user.Country)
	assert.False(t, user.IsVerified)

	_, _, err = svc.Login(ctx, "kofi@example.com", "password1")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized), "unverified login must fail")

	assert.True(t, models.IsCode(svc.VerifyEmail(ctx, "kofi@example.com", "000000x"), models.CodeValidation))

	code := lastCode(t, mail)
	require.NoError(t, svc.VerifyEmail(ctx, "kofi@example.com", code))
	assert.True(t, models.IsCode(svc.VerifyEmail(ctx, "kofi@example.com", code), models.CodeValidation))

	token, logged, err := svc.Login(ctx, "KOFI@example.com", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, logged.ID)

	_, _, err = svc.Login(ctx, "kofi@example.com", "wrong-password")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
	_, _, err = svc.Login(ctx, "nobody@example.com", "password1")
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}

func TestAuthService_Register_Rejects(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
		code string
	}{
		{"Short Password", RegisterInput{Name: "A", Email: "a@example.com", Password: "short", Country: "GH"}, models.CodeValidation},
		{"Bad Email", RegisterInput{Name: "A", Email: "nope", Password: "password1", Country: "GH"}, models.CodeValidation},
		{"Bad Country", RegisterInput{Name: "A", Email: "a@example.com", Password: "password1", Country: "GHA"}, models.CodeValidation},
		{"Missing Name", RegisterInput{Email: "a@example.com", Password: "password1", Country: "GH"}, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			assert.True(t, models.IsCode(err, tt.code), "got %v", err)
		})
	}

	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "dup@example.com", Password: "password1", Country: "GH"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Name: "B", Email: "DUP@example.com", Password: "password1", Country: "GH"})
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)
}

func TestAuthService_VerificationCodeExpires(t *testing.T) {
	svc, _, mail := newAuthService(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Register(ctx, RegisterInput{Name: "Ama", Email: "ama@example.com", Password: "password1", Country: "GH"})
	require.NoError(t, err)
	code := lastCode(t, mail)

	now = now.Add(VerificationCodeTTL + time.Second)
	assert.True(t, models.IsCode(svc.VerifyEmail(ctx, "ama@example.com", code), models.CodeValidation))

	require.NoError(t, svc.ResendCode(ctx, "ama@example.com"))
	fresh := lastCode(t, mail)
	require.NoError(t, svc.VerifyEmail(ctx, "ama@example.com", fresh))

	assert.True(t, models.IsCode(svc.ResendCode(ctx, "ama@example.com"), models.CodeValidation))
	assert.True(t, models.IsCode(svc.ResendCode(ctx, "ghost@example.com"), models.CodeNotFound))
}

func TestAuthService_ForgotAndResetPassword(t *testing.T) {
	svc, db, mail := newAuthService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db)

	require.NoError(t, svc.ForgotPassword(ctx, "unknown@example.com"))
	assert.Empty(t, mail.Sent())

	require.NoError(t, svc.ForgotPassword(ctx, user.Email))
	code := lastCode(t, mail)

	assert.True(t, models.IsCode(svc.ResetPassword(ctx, user.Email, "999999", "new-password"), models.CodeValidation))
	assert.True(t, models.IsCode(svc.ResetPassword(ctx, user.Email, code, "short"), models.CodeValidation))
	require.NoError(t, svc.ResetPassword(ctx, user.Email, code, "new-password"))

	_, _, err := svc.Login(ctx, user.Email, "new-password")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, user.Email, testutil.DefaultPassword)
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))

	assert.True(t, models.IsCode(svc.ResetPassword(ctx, user.Email, code, "another-password"), models.CodeValidation),
		"reset code is single use")
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	svc, db, _ := newAuthService(t)
	mr, _ := testutil.UseMiniredis(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db)

	token, _, err := svc.Login(ctx, user.Email, testutil.DefaultPassword)
	require.NoError(t, err)
	claims, err := svc.tokens.Parse(token)
	require.NoError(t, err)

	revoked, err := svc.IsRevoked(ctx, claims.JTI)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.Logout(ctx, claims))
	revoked, err = svc.IsRevoked(ctx, claims.JTI)
	require.NoError(t, err)
	assert.True(t, revoked)

	ttl := mr.TTL(middleware.RevokedTokenKey(claims.JTI))
	assert.True(t, ttl > 0 && ttl <= time.Hour, "ttl %s", ttl)
}

func TestAuthService_MailFailureDoesNotFailRegistration(t *testing.T) {
	svc, _, mail := newAuthService(t)
	mail.Err = testutil.ErrStubFailure

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Yaw", Email: "yaw@example.com", Password: "password1", Country: "GH"})
	assert.NoError(t, err)
}
