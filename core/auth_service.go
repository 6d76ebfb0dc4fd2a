package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuthService orchestrates the credential policy, password hashing, and the
// token codec against the user store. It holds no mutable state, so a single
// instance serves all requests.
type AuthService struct {
	users UserRepository
	codec *TokenCodec
}

func NewAuthService(users UserRepository, codec *TokenCodec) *AuthService {
	return &AuthService{users: users, codec: codec}
}

// Register creates a new user. Returned PolicyViolation values are safe to
// show to the registering user; storage failures collapse to ErrPersistence.
// No token is issued at registration.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" {
		return newViolation("USERNAME_EMPTY", "username must not be empty")
	}
	if password == "" {
		return newViolation("PASSWORD_EMPTY", "password must not be empty")
	}
	if err := ValidateUsername(username); err != nil {
		return err
	}
	// Uniqueness comes after the syntactic checks so no lookup is issued for
	// input that can never be a valid username.
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return newViolation("USERNAME_TAKEN", "username %q is already taken", username)
	} else if !errors.Is(err, ErrUserNotFound) {
		return ErrPersistence
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	// A concurrent registration can still win the unique index race; that
	// loss surfaces as an opaque persistence failure like any other.
	if err := s.users.Create(ctx, user); err != nil {
		return ErrPersistence
	}
	return nil
}

// Login verifies credentials and issues a token pair. The refresh token is
// only minted when rememberMe is set. Every failure, including syntactically
// impossible usernames, maps to ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string, rememberMe bool) (TokenPair, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	// A name that fails the syntactic policy cannot exist in the store, so
	// it is rejected before any lookup, with the same generic error.
	if err := ValidateUsername(username); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	if !CheckPassword(password, user.PasswordHash) {
		return TokenPair{}, ErrInvalidCredentials
	}
	return s.codec.Issue(user.ID, user.Username, rememberMe)
}

// RefreshAccessToken mints a new access token from a valid refresh token.
// Refresh tokens are only created at login; a refresh never mints another
// refresh token, and an access token can never renew itself.
func (s *AuthService) RefreshAccessToken(tokenString string) (TokenPair, error) {
	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return TokenPair{}, ErrWrongTokenType
	}
	return s.codec.Issue(claims.Subject, claims.Username, false)
}

// WhoAmI resolves a bearer access token to its username.
func (s *AuthService) WhoAmI(tokenString string) (string, error) {
	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		return "", err
	}
	if claims.TokenType != TokenTypeAccess {
		return "", ErrWrongTokenType
	}
	return claims.Username, nil
}
