package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fullcourse/fullcourse-api/internal/model"
)

var sixDigits = regexp.MustCompile(`\b(\d{6})\b`)

func codeFromMail(t *testing.T, e *env) string {
	t.Helper()
	m := sixDigits.FindStringSubmatch(e.mail.last().Body)
	require.Len(t, m, 2, "mail should contain a six digit code")
	return m[1]
}

func registerRequest(email, code, handle string) model.RegisterRequest {
	return model.RegisterRequest{
		Email:    email,
		Code:     code,
		Handle:   handle,
		Name:     "Chef",
		Password: "password123",
	}
}

func TestSendCode_StoresAndMailsCode(t *testing.T) {
	e := newEnv()
	require.NoError(t, e.registration.SendCode(context.Background(), "a@x.com"))

	code := codeFromMail(t, e)
	tok, err := fakeTokens{e.db}.Get(context.Background(), model.PurposeEmailVerification, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, code, tok.Value)
	assert.Equal(t, e.now.Add(10*time.Minute), tok.ExpiresAt)
}

func TestSendCode_RegisteredEmail(t *testing.T) {
	e := newEnv()
	e.seedUser("a@x.com", "A")

	err := e.registration.SendCode(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	assert.Empty(t, e.mail.sent)
}

func TestSendCode_MailFailure(t *testing.T) {
	e := newEnv()
	e.mail.err = errors.New("smtp down")
	assert.Error(t, e.registration.SendCode(context.Background(), "a@x.com"))
}

func TestSendCode_ReplacesEarlierCode(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	tokens := fakeTokens{e.db}

	require.NoError(t, tokens.Upsert(ctx, &model.OneTimeToken{
		Purpose: model.PurposeEmailVerification, Email: "a@x.com", Value: "000000", ExpiresAt: e.now.Add(time.Minute),
	}))
	require.NoError(t, e.registration.SendCode(ctx, "a@x.com"))

	tok, err := tokens.Get(ctx, model.PurposeEmailVerification, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, codeFromMail(t, e), tok.Value)
}

func TestVerifyCode_Failures(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	err := e.registration.VerifyCode(ctx, "a@x.com", "123456")
	assert.ErrorIs(t, err, ErrCodeNotFound)

	require.NoError(t, e.registration.SendCode(ctx, "a@x.com"))
	code := codeFromMail(t, e)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	assert.ErrorIs(t, e.registration.VerifyCode(ctx, "a@x.com", wrong), ErrCodeMismatch)
	assert.NoError(t, e.registration.VerifyCode(ctx, "a@x.com", code))
	// Verification does not consume the code.
	assert.NoError(t, e.registration.VerifyCode(ctx, "a@x.com", code))
}

func TestVerifyCode_ExpiryBoundary(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"9m59s", 9*time.Minute + 59*time.Second, nil},
		{"exactly 10m", 10 * time.Minute, nil},
		{"10m01s", 10*time.Minute + time.Second, ErrCodeExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			ctx := context.Background()
			require.NoError(t, e.registration.SendCode(ctx, "a@x.com"))
			code := codeFromMail(t, e)

			e.advance(tt.elapsed)
			err := e.registration.VerifyCode(ctx, "a@x.com", code)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRegister_CreatesAccountAndConsumesCode(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	require.NoError(t, e.registration.SendCode(ctx, "a@x.com"))
	code := codeFromMail(t, e)

	resp, err := e.registration.Register(ctx, registerRequest("a@x.com", code, "chef1"))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "chef1", resp.User.Handle)
	assert.Equal(t, "Chef", resp.User.Name)

	_, err = fakeTokens{e.db}.Get(ctx, model.PurposeEmailVerification, "a@x.com")
	assert.Error(t, err, "code should be consumed")

	_, err = e.auth.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "password123"})
	assert.NoError(t, err)
}

func TestRegister_RevalidatesCode(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	_, err := e.registration.Register(ctx, registerRequest("a@x.com", "123456", "chef1"))
	assert.ErrorIs(t, err, ErrCodeNotFound)

	require.NoError(t, e.registration.SendCode(ctx, "a@x.com"))
	code := codeFromMail(t, e)
	e.advance(11 * time.Minute)

	_, err = e.registration.Register(ctx, registerRequest("a@x.com", code, "chef1"))
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestRegister_HandleTakenIsRetryable(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	require.NoError(t, fakeUsers{e.db}.Create(ctx, &model.User{Email: "other@x.com", Handle: "chef1", Name: "Other"}))

	require.NoError(t, e.registration.SendCode(ctx, "a@x.com"))
	code := codeFromMail(t, e)

	_, err := e.registration.Register(ctx, registerRequest("a@x.com", code, "chef1"))
	assert.ErrorIs(t, err, ErrHandleTaken)

	// The code survives the failure, so a different handle can be tried.
	_, err = e.registration.Register(ctx, registerRequest("a@x.com", code, "chef2"))
	assert.NoError(t, err)
}

func TestRegister_EmailRace(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	require.NoError(t, e.registration.SendCode(ctx, "a@x.com"))
	code := codeFromMail(t, e)

	e.seedUser("a@x.com", "Raced")
	_, err := e.registration.Register(ctx, registerRequest("a@x.com", code, "chef1"))
	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
}

func TestRegister_PasswordOverBcryptLimit(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	require.NoError(t, e.tokens.Issue(ctx, model.PurposeEmailVerification, "a@x.com", "123456"))

	req := registerRequest("a@x.com", "123456", "chef1")
	req.Password = strings.Repeat("あ", 30)
	_, err := e.registration.Register(ctx, req)
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}
