package middleware

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/socialnet/backend/internal/models"
)

// FirebaseVerifier is satisfied by *auth.Client
type FirebaseVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseUserResolver maps a verified Firebase token to a local user
type FirebaseUserResolver interface {
	ResolveFirebaseUser(ctx context.Context, token *auth.Token) (*models.User, error)
}

// FirebaseAuthenticator accepts Firebase ID tokens in place of local JWTs
func FirebaseAuthenticator(verifier FirebaseVerifier, resolver FirebaseUserResolver) TokenAuthenticator {
	return func(ctx context.Context, idToken string) (*models.JwtCustomClaims, error) {
		token, err := verifier.VerifyIDToken(ctx, idToken)
		if err != nil {
			return nil, err
		}
		user, err := resolver.ResolveFirebaseUser(ctx, token)
		if err != nil {
			return nil, err
		}
		return &models.JwtCustomClaims{UserID: user.ID, Username: user.Username}, nil
	}
}
