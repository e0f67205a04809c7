package model

import (
	"errors"
	"time"
)

// Session identifies the token a request was authenticated with.
type Session struct {
	TokenID   string
	ExpiresAt time.Time
}

// ErrInvalidToken covers missing, malformed, expired, revoked and foreign tokens alike.
var ErrInvalidToken = errors.New("invalid or expired token")
