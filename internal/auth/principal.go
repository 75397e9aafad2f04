package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/isdelr/inkwell-be/internal/models"
)

// Principal is the authenticated identity acting on a request.
type Principal struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

type contextKey string

const principalKey = contextKey("principal")

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom extracts the principal stored by the authentication middleware.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// Authenticator verifies tokens against the identity store and the revocation list.
type Authenticator struct {
	db      *gorm.DB
	tokens  *TokenIssuer
	revoker Revoker
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(db *gorm.DB, tokens *TokenIssuer, revoker Revoker) *Authenticator {
	return &Authenticator{db: db, tokens: tokens, revoker: revoker}
}

// Issue delegates to the token issuer.
func (a *Authenticator) Issue(userID, username string) (string, time.Time, error) {
	return a.tokens.Issue(userID, username)
}

// Verify validates the token and rebuilds the principal with the user's current username and role.
// The role is always read from the store because it may have changed since the token was issued.
func (a *Authenticator) Verify(ctx context.Context, tokenStr string) (Principal, error) {
	claims, err := a.tokens.Parse(tokenStr)
	if err != nil {
		return Principal{}, err
	}

	revoked, err := a.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Principal{}, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return Principal{}, ErrInvalidToken
	}

	var user models.User
	if err := a.db.WithContext(ctx).Select("id", "username", "role").First(&user, "id = ?", claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Principal{}, ErrInvalidToken
		}
		return Principal{}, fmt.Errorf("failed to load token owner: %w", err)
	}

	return Principal{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// Revoke invalidates the given token until it would have expired anyway.
func (a *Authenticator) Revoke(ctx context.Context, tokenStr string) error {
	claims, err := a.tokens.Parse(tokenStr)
	if err != nil {
		return err
	}
	return a.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
