package core

import (
	"errors"
	"time"
)

// User is the stored identity record. PasswordHash is a bcrypt digest; the
// raw password never leaves the registration or login call.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

var (
	// ErrInvalidCredentials is returned for every login failure so callers
	// cannot tell a missing user from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrWrongTokenType is returned when a token of the other kind is
	// presented, e.g. an access token on the refresh endpoint.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrPersistence stands in for any storage failure; the underlying
	// error never crosses the service boundary.
	ErrPersistence = errors.New("persistence failure")
)
