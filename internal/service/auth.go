package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"socialnet/internal/config"
	"socialnet/internal/model"
)

// TokenDenylist records token ids revoked before their natural expiry.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type sessionClaims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// AuthService issues and verifies HS256 session tokens.
type AuthService struct {
	secret   []byte
	ttl      time.Duration
	denylist TokenDenylist
	now      func() time.Time
	log      *zap.Logger
}

// NewAuthService creates the token service. denylist may be nil, in which case logout only clears the cookie.
func NewAuthService(cfg *config.Config, denylist TokenDenylist, log *zap.Logger) *AuthService {
	return &AuthService{
		secret:   []byte(cfg.JWTSecret),
		ttl:      time.Duration(cfg.JWTExpiresMinutes) * time.Minute,
		denylist: denylist,
		now:      time.Now,
		log:      log,
	}
}

// TTL is the lifetime of tokens and of the session cookie.
func (s *AuthService) TTL() time.Duration {
	return s.ttl
}

// IssueToken signs a token for userID with a fresh jti.
func (s *AuthService) IssueToken(userID int64) (string, model.Session, error) {
	now := s.now()
	session := model.Session{
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(s.ttl),
	}

	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", model.Session{}, fmt.Errorf("sign token: %w", err)
	}
	return token, session, nil
}

// ParseToken verifies signature, algorithm, expiry and revocation.
func (s *AuthService) ParseToken(ctx context.Context, raw string) (int64, model.Session, error) {
	if raw == "" {
		return 0, model.Session{}, model.ErrInvalidToken
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.UserID <= 0 {
		return 0, model.Session{}, model.ErrInvalidToken
	}

	session := model.Session{TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}

	if s.denylist != nil && session.TokenID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, session.TokenID)
		if err != nil {
			return 0, model.Session{}, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return 0, model.Session{}, model.ErrInvalidToken
		}
	}

	return claims.UserID, session, nil
}

// Revoke denylists the session until it would have expired. Without a denylist it is a no-op.
func (s *AuthService) Revoke(ctx context.Context, session model.Session) error {
	if s.denylist == nil {
		return nil
	}
	if err := s.denylist.Revoke(ctx, session.TokenID, session.ExpiresAt.Sub(s.now())); err != nil {
		s.log.Error("failed to revoke session", zap.String("jti", session.TokenID), zap.Error(err))
		return err
	}
	return nil
}

// IsInvalidToken reports whether err means the caller is simply not authenticated.
func IsInvalidToken(err error) bool {
	return errors.Is(err, model.ErrInvalidToken)
}
