package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/afaf/accounts/internal/core/domain"
)

const DefaultTokenTTL = 24 * time.Hour

var ErrEmptySecret = errors.New("token service: signing secret is empty")

// Claims is the signed token payload: sub, email, role, iat, exp.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 session tokens. Its fields are set
// once in NewTokenService and only read afterwards, so a single instance is
// shared by all request goroutines.
type TokenService struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &TokenService{
		key: []byte(secret),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

// TTL is the fixed validity window of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the account, valid from now for the configured TTL.
// now is truncated to whole seconds, the resolution of iat and exp.
func (s *TokenService) Issue(accountID uuid.UUID, email string, role domain.Role, now time.Time) (string, error) {
	if !role.Valid() {
		return "", domain.InternalError(fmt.Errorf("sign token: invalid role %d", int(role)))
	}
	issuedAt := now.Truncate(time.Second)
	claims := Claims{
		Email: email,
		Role:  role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", domain.InternalError(fmt.Errorf("sign token: %w", err))
	}
	return signed, nil
}

// Verify checks signature and expiry. Every failure, whatever the stage,
// yields the same authentication error.
func (s *TokenService) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := s.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, domain.AuthenticationError(domain.MsgInvalidToken)
	}
	return claims, nil
}

// ExtractAccountID verifies token and parses its subject as an account id.
func (s *TokenService) ExtractAccountID(token string) (uuid.UUID, error) {
	claims, err := s.Verify(token)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, domain.AuthenticationError(domain.MsgInvalidUserIDInToken)
	}
	return id, nil
}
