// Package clerk verifies Clerk session tokens and Clerk webhook deliveries.
package clerk

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"valorant-missions/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSubject  = errors.New("token has no subject")
	ErrUnauthorizedAzp = errors.New("token issued for an unknown party")
)

type Claims struct {
	jwt.RegisteredClaims
	AuthorizedParty string `json:"azp,omitempty"`
	Email           string `json:"email,omitempty"`
	Username        string `json:"username,omitempty"`
}

// Session is what the rest of the service knows about a signed-in caller.
type Session struct {
	UserID   string
	Email    string
	Username string
}

type TokenVerifier struct {
	key     *rsa.PublicKey
	parties []string
	leeway  time.Duration
}

func NewTokenVerifier(cfg *config.Config) (*TokenVerifier, error) {
	// env files often carry the PEM on one line with escaped newlines
	pem := strings.ReplaceAll(cfg.ClerkJWTKey, `\n`, "\n")
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("failed to parse CLERK_JWT_KEY: %w", err)
	}
	return &TokenVerifier{
		key:     key,
		parties: cfg.ClerkAuthorizedParties,
		leeway:  5 * time.Second,
	}, nil
}

func (v *TokenVerifier) Verify(raw string) (*Session, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return nil, err
	}

	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	if claims.AuthorizedParty != "" && len(v.parties) > 0 && !slices.Contains(v.parties, claims.AuthorizedParty) {
		return nil, ErrUnauthorizedAzp
	}

	return &Session{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}
