package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Default validity windows, overridable through Config.
const (
	DefaultAccessTokenTTL  = 30 * time.Minute
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

var (
	// ErrTokenInvalid covers malformed tokens and signature mismatches.
	ErrTokenInvalid = errors.New("token is invalid")
	// ErrTokenExpired is returned once a token's expiry has passed.
	ErrTokenExpired = errors.New("token has expired")
)

// Claims is the decoded payload of an issued token. The subject registered
// claim carries the user id.
type Claims struct {
	Username  string    `json:"username"`
	TokenType TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is the response envelope for login and refresh. RefreshToken is
// only set when the caller opted in; Scheme is always "bearer" (serialized as
// the OAuth2 token_type field).
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scheme       string `json:"token_type"`
}

// TokenCodec signs and verifies tokens with a single symmetric secret held
// for the process lifetime. The secret is never mutated after construction,
// so concurrent use needs no synchronization.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenCodec builds a codec from the configured secret. Zero TTLs fall
// back to the defaults.
func NewTokenCodec(secret string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("empty token secret")
	}
	if accessTTL == 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL == 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &TokenCodec{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// Issue creates a signed access token for the user and, when wantRefresh is
// set, a long-lived refresh token alongside it.
func (c *TokenCodec) Issue(userID, username string, wantRefresh bool) (TokenPair, error) {
	access, err := c.sign(userID, username, TokenTypeAccess, c.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	pair := TokenPair{AccessToken: access, Scheme: "bearer"}
	if wantRefresh {
		refresh, err := c.sign(userID, username, TokenTypeRefresh, c.refreshTTL)
		if err != nil {
			return TokenPair{}, err
		}
		pair.RefreshToken = refresh
	}
	return pair, nil
}

func (c *TokenCodec) sign(userID, username string, typ TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username:  username,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	str, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", typ, err)
	}
	return str, nil
}

// Verify checks the signature and expiry of tokenString and returns its
// claims. The codec is type-agnostic: callers decide whether the operation
// at hand requires an access or a refresh token.
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
