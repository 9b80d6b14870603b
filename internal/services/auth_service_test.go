package services

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/anonto42/socialnet/backend/internal/repositories"
	"github.com/anonto42/socialnet/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sentMail struct {
	to, username, link string
}

type captureMailer struct {
	sent []sentMail
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, username, resetURL string) error {
	m.sent = append(m.sent, sentMail{to: to, username: username, link: resetURL})
	return nil
}

type stubVerifier struct {
	tokens map[string]*auth.Token
}

func (v stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := v.tokens[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("token rejected")
}

func newAuthService(t *testing.T, db *gorm.DB, mail *captureMailer, verifier FirebaseVerifier) *AuthService {
	t.Helper()
	return NewAuthService(
		db,
		repositories.NewPostgresUserRepository(db),
		repositories.NewPostgresPasswordResetRepository(db),
		NewTokenManager("test-secret", time.Hour),
		mail,
		verifier,
		24*time.Hour,
		"http://frontend.test/",
		zap.NewNop(),
	)
}

func TestSignupAndLogin(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newAuthService(t, db, &captureMailer{}, nil)
	ctx := context.Background()

	user, token, err := svc.Signup(ctx, &models.SignupRequest{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret123", user.Password)

	_, _, err = svc.Signup(ctx, &models.SignupRequest{Username: "alice", Email: "other@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, repositories.ErrAlreadyExists)

	for _, login := range []string{"alice", "ALICE@example.com"} {
		got, token, err := svc.Login(ctx, &models.LoginRequest{Username: login, Password: "secret123"})
		require.NoError(t, err, login)
		assert.Equal(t, user.ID, got.ID)

		claims, err := svc.tokens.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	}

	_, _, err = svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, &models.LoginRequest{Username: "nobody", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := newAuthService(t, db, &captureMailer{}, nil)
	ctx := context.Background()

	user, _, err := svc.Signup(ctx, &models.SignupRequest{Username: "alice", Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, &models.ChangePasswordRequest{OldPassword: "nope", NewPassword: "newsecret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, &models.ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret"}))

	_, _, err = svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "newsecret"})
	assert.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	db := testutil.NewTestDB(t)
	mail := &captureMailer{}
	svc := newAuthService(t, db, mail, nil)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, &models.SignupRequest{Username: "alice", Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)

	// unknown addresses look the same to the caller
	require.NoError(t, svc.RequestPasswordReset(ctx, "ghost@example.com"))
	assert.Empty(t, mail.sent)

	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "alice", mail.sent[0].username)

	link, err := url.Parse(mail.sent[0].link)
	require.NoError(t, err)
	assert.Equal(t, "/reset-password", link.Path)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	require.NoError(t, svc.ConfirmPasswordReset(ctx, &models.PasswordResetConfirmRequest{Token: token, NewPassword: "brandnew"}))
	assert.Zero(t, testutil.CountRows(t, db, &models.PasswordReset{}, ""))

	_, _, err = svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "brandnew"})
	assert.NoError(t, err)

	// tokens are single use
	err = svc.ConfirmPasswordReset(ctx, &models.PasswordResetConfirmRequest{Token: token, NewPassword: "again123"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordResetExpired(t *testing.T) {
	db := testutil.NewTestDB(t)
	mail := &captureMailer{}
	svc := newAuthService(t, db, mail, nil)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, &models.SignupRequest{Username: "alice", Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(ctx, "alice@example.com"))

	link, err := url.Parse(mail.sent[0].link)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	err = svc.ConfirmPasswordReset(ctx, &models.PasswordResetConfirmRequest{Token: link.Query().Get("token"), NewPassword: "brandnew"})
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Zero(t, testutil.CountRows(t, db, &models.PasswordReset{}, ""))
}

func TestFirebaseLogin(t *testing.T) {
	db := testutil.NewTestDB(t)
	existing := testutil.CreateUser(t, db, "bob")
	verifier := stubVerifier{tokens: map[string]*auth.Token{
		"new-user": {UID: "firebase-uid-0001", Claims: map[string]interface{}{"email": "carol@example.com", "email_verified": true, "name": "Carol King"}},
		"linked":   {UID: "firebase-uid-0002", Claims: map[string]interface{}{"email": existing.Email, "email_verified": true}},
	}}
	svc := newAuthService(t, db, &captureMailer{}, verifier)
	ctx := context.Background()

	user, token, err := svc.FirebaseLogin(ctx, "new-user")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "carol_firebase-uid-0001", user.Username)
	assert.Equal(t, "Carol", user.FirstName)
	assert.Equal(t, "King", user.LastName)

	again, _, err := svc.FirebaseLogin(ctx, "new-user")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	linked, _, err := svc.FirebaseLogin(ctx, "linked")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)
	require.NotNil(t, linked.FirebaseUID)
	assert.Equal(t, "firebase-uid-0002", *linked.FirebaseUID)

	_, _, err = svc.FirebaseLogin(ctx, "forged")
	assert.ErrorIs(t, err, ErrInvalidToken)

	disabled := newAuthService(t, db, &captureMailer{}, nil)
	_, _, err = disabled.FirebaseLogin(ctx, "new-user")
	assert.ErrorIs(t, err, ErrFirebaseDisabled)
}

func TestFirebaseLoginUnverifiedEmailDoesNotLink(t *testing.T) {
	db := testutil.NewTestDB(t)
	victim := testutil.CreateUser(t, db, "dave")
	verifier := stubVerifier{tokens: map[string]*auth.Token{
		"unverified": {UID: "firebase-uid-0003", Claims: map[string]interface{}{"email": victim.Email, "email_verified": false}},
		"no-claim":   {UID: "firebase-uid-0004", Claims: map[string]interface{}{"email": victim.Email}},
	}}
	svc := newAuthService(t, db, &captureMailer{}, verifier)
	ctx := context.Background()

	for _, idToken := range []string{"unverified", "no-claim"} {
		user, _, err := svc.FirebaseLogin(ctx, idToken)
		require.NoError(t, err, idToken)
		assert.NotEqual(t, victim.ID, user.ID, idToken)
		assert.NotEqual(t, victim.Email, user.Email, idToken)
	}

	var stored models.User
	require.NoError(t, db.First(&stored, victim.ID).Error)
	assert.Nil(t, stored.FirebaseUID)
}

func TestFirebaseUsernamesDoNotCollide(t *testing.T) {
	db := testutil.NewTestDB(t)
	verifier := stubVerifier{tokens: map[string]*auth.Token{
		"first":  {UID: "sharedprefix-aaaa", Claims: map[string]interface{}{"email": "erin@one.example", "email_verified": true}},
		"second": {UID: "sharedprefix-bbbb", Claims: map[string]interface{}{"email": "erin@two.example", "email_verified": true}},
	}}
	svc := newAuthService(t, db, &captureMailer{}, verifier)
	ctx := context.Background()

	first, _, err := svc.FirebaseLogin(ctx, "first")
	require.NoError(t, err)
	second, _, err := svc.FirebaseLogin(ctx, "second")
	require.NoError(t, err)
	assert.NotEqual(t, first.Username, second.Username)

	testutil.CreateUser(t, db, "frank_sharedprefix-cccc")
	verifier.tokens["taken"] = &auth.Token{UID: "sharedprefix-cccc", Claims: map[string]interface{}{"email": "frank@example.com", "email_verified": true}}
	third, _, err := svc.FirebaseLogin(ctx, "taken")
	require.NoError(t, err)
	assert.NotEqual(t, "frank_sharedprefix-cccc", third.Username)
	assert.Equal(t, "frank@example.com", third.Email)
}

func TestTokenManager(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	user := &models.User{ID: 7, Username: "alice"}

	token, err := m.Issue(user)
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = NewTokenManager("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewTokenManager("secret", -time.Minute).Issue(user)
	require.NoError(t, err)
	_, err = m.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
