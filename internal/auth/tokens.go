// Package auth issues and verifies the stateless session credentials:
// HS256-signed JWT access/refresh pairs and bcrypt password hashes.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itsatony/sensorhub/internal/config"
	"github.com/itsatony/sensorhub/internal/errors"
	"github.com/itsatony/sensorhub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// TokenType separates access from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the JWT claims carried by both token types
type Claims struct {
	TokenType TokenType `json:"token_type"`
	UserID    int64     `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session tokens. Nothing is stored server
// side; a token is valid while its signature and expiry check out.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates a TokenIssuer from the auth configuration
func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

// IssuePair issues a new access/refresh pair for userID
func (t *TokenIssuer) IssuePair(userID int64) (models.TokenPair, error) {
	access, err := t.issue(userID, TokenTypeAccess, t.accessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := t.issue(userID, TokenTypeRefresh, t.refreshTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess issues a single access token for userID
func (t *TokenIssuer) IssueAccess(userID int64) (string, error) {
	return t.issue(userID, TokenTypeAccess, t.accessTTL)
}

// ParseAccess validates an access token and returns its user id
func (t *TokenIssuer) ParseAccess(token string) (int64, error) {
	return t.parse(token, TokenTypeAccess)
}

// ParseRefresh validates a refresh token and returns its user id
func (t *TokenIssuer) ParseRefresh(token string) (int64, error) {
	return t.parse(token, TokenTypeRefresh)
}

func (t *TokenIssuer) issue(userID int64, typ TokenType, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		TokenType: typ,
		UserID:    userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        nuts.NID("jti", 16),
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", errors.NewInternalError("failed to sign token", err)
	}
	return signed, nil
}

func (t *TokenIssuer) parse(token string, want TokenType) (int64, error) {
	if token == "" {
		return 0, errors.NewAuthError("authentication credentials were not provided", nil)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)

	var claims Claims
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}); err != nil {
		return 0, errors.NewAuthError("token is invalid or expired", err)
	}
	if claims.TokenType != want {
		return 0, errors.NewAuthError("token is invalid or expired", fmt.Errorf("expected %s token, got %q", want, claims.TokenType))
	}
	if claims.UserID <= 0 {
		return 0, errors.NewAuthError("token is invalid or expired", fmt.Errorf("token carries no user id"))
	}
	return claims.UserID, nil
}
