package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/RodolfoDevApp/eventshop-stockledger-go/internal/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	Superuser bool   `json:"superuser,omitempty"`
	TokenType string `json:"token_type"`
}

type TokenPair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (m *TokenManager) Issue(u *domain.User) (TokenPair, error) {
	now := m.now()
	access, accessExp, err := m.sign(u, tokenTypeAccess, m.accessSecret, now, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := m.sign(u, tokenTypeRefresh, m.refreshSecret, now, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAccess mints only an access token, used by the refresh flow.
func (m *TokenManager) IssueAccess(u *domain.User) (string, time.Time, error) {
	return m.sign(u, tokenTypeAccess, m.accessSecret, m.now(), m.accessTTL)
}

func (m *TokenManager) sign(u *domain.User, typ string, secret []byte, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Role:      string(u.Role),
		Superuser: u.IsSuperuser,
		TokenType: typ,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

// ParseAccess validates an access token and returns the caller it identifies.
func (m *TokenManager) ParseAccess(token string) (Principal, error) {
	claims, err := m.parse(token, tokenTypeAccess, m.accessSecret)
	if err != nil {
		return Principal{}, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: bad subject", domain.ErrUnauthorized)
	}
	return Principal{
		UserID:    id,
		Role:      domain.Role(claims.Role),
		Superuser: claims.Superuser,
	}, nil
}

// ParseRefresh validates a refresh token and returns the user id it was issued for.
func (m *TokenManager) ParseRefresh(token string) (uuid.UUID, error) {
	claims, err := m.parse(token, tokenTypeRefresh, m.refreshSecret)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", domain.ErrUnauthorized)
	}
	return id, nil
}

func (m *TokenManager) parse(token, typ string, secret []byte) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if claims.ExpiresAt == nil || !m.now().Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: token expired", domain.ErrUnauthorized)
	}
	if claims.TokenType != typ {
		return nil, fmt.Errorf("%w: expected %s token", domain.ErrUnauthorized, typ)
	}
	return claims, nil
}

var errEmptySecret = errors.New("jwt secret must not be empty")

// Validate rejects a manager that would sign with an empty key.
func (m *TokenManager) Validate() error {
	if len(m.accessSecret) == 0 || len(m.refreshSecret) == 0 {
		return errEmptySecret
	}
	return nil
}
