package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/anonto42/socialnet/backend/internal/repositories"
	"github.com/anonto42/socialnet/backend/pkg/mailer"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// FirebaseVerifier is satisfied by *auth.Client
type FirebaseVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthService handles local and Firebase sign in, password changes and resets.
type AuthService struct {
	db          *gorm.DB
	users       repositories.UserRepository
	resets      repositories.PasswordResetRepository
	tokens      *TokenManager
	mailer      mailer.Mailer
	firebase    FirebaseVerifier
	resetTTL    time.Duration
	frontendURL string
	logger      *zap.Logger

	now func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	users repositories.UserRepository,
	resets repositories.PasswordResetRepository,
	tokens *TokenManager,
	mail mailer.Mailer,
	firebase FirebaseVerifier,
	resetTTL time.Duration,
	frontendURL string,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		db:          db,
		users:       users,
		resets:      resets,
		tokens:      tokens,
		mailer:      mail,
		firebase:    firebase,
		resetTTL:    resetTTL,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
		now:         time.Now,
	}
}

// Signup creates a local account and returns it with an access token
func (s *AuthService) Signup(ctx context.Context, req *models.SignupRequest) (*models.User, string, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Username:  req.Username,
		Email:     strings.ToLower(req.Email),
		Password:  hash,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// Login authenticates by username or email
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	user, err := s.users.GetUserByLogin(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !checkPassword(user.Password, req.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// FirebaseLogin verifies a Firebase ID token, links or creates the local account
// and issues a local access token.
func (s *AuthService) FirebaseLogin(ctx context.Context, idToken string) (*models.User, string, error) {
	if s.firebase == nil {
		return nil, "", ErrFirebaseDisabled
	}
	token, err := s.firebase.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := s.ResolveFirebaseUser(ctx, token)
	if err != nil {
		return nil, "", err
	}

	local, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, local, nil
}

// ResolveFirebaseUser maps a verified Firebase token to a local user, by UID first
// and then by email. Only a verified email links to an existing account; an
// unverified one is not stored at all. Unknown identities get a new account.
func (s *AuthService) ResolveFirebaseUser(ctx context.Context, token *auth.Token) (*models.User, error) {
	user, err := s.users.GetUserByFirebaseUID(ctx, token.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	email, _ := token.Claims["email"].(string)
	verified, _ := token.Claims["email_verified"].(bool)
	name, _ := token.Claims["name"].(string)
	uid := token.UID

	if !verified {
		email = ""
	}
	if email != "" {
		user, err = s.users.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			user.FirebaseUID = &uid
			if err := s.users.UpdateUser(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to link firebase account: %w", err)
			}
			s.logger.Info("firebase account linked", zap.Uint("user_id", user.ID))
			return user, nil
		case !errors.Is(err, repositories.ErrNotFound):
			return nil, err
		}
	}

	first, last, _ := strings.Cut(name, " ")
	user = &models.User{
		Username:    firebaseUsername(email, uid),
		Email:       strings.ToLower(email),
		FirstName:   first,
		LastName:    last,
		FirebaseUID: &uid,
	}
	if user.Email == "" {
		user.Email = uid + "@firebase.local"
	}
	err = s.users.CreateUser(ctx, user)
	if errors.Is(err, repositories.ErrAlreadyExists) {
		// a local account took the name
		user.ID = 0
		user.Username = firebaseUsername(email, uuid.NewString())
		err = s.users.CreateUser(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase user: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password of userID after checking the old one
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, req *models.ChangePasswordRequest) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !checkPassword(user.Password, req.OldPassword) {
		return ErrInvalidCredentials
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// RequestPasswordReset mails a reset link. Unknown emails succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	now := s.now()
	reset := &models.PasswordReset{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := s.frontendURL + "/reset-password?token=" + url.QueryEscape(reset.Token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Username, link); err != nil {
		return err
	}
	s.logger.Info("password reset requested", zap.Uint("user_id", user.ID))
	return nil
}

// ConfirmPasswordReset sets a new password from a valid token. Every token of
// the user is consumed.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, req *models.PasswordResetConfirmRequest) error {
	reset, err := s.resets.GetByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if !reset.IsValid(s.now()) {
		if err := s.resets.DeleteByUserID(ctx, reset.UserID); err != nil {
			s.logger.Warn("failed to drop expired reset tokens", zap.Uint("user_id", reset.UserID), zap.Error(err))
		}
		return ErrInvalidToken
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).UpdatePassword(ctx, reset.UserID, hash); err != nil {
			return err
		}
		return s.resets.WithTx(tx).DeleteByUserID(ctx, reset.UserID)
	})
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// firebaseUsername derives a username from the email local part and the full
// UID, which is unique per Firebase identity.
func firebaseUsername(email, uid string) string {
	base, _, _ := strings.Cut(email, "@")
	if base == "" {
		base = "user"
	}
	if len(base) > 20 {
		base = base[:20]
	}
	return base + "_" + uid
}
