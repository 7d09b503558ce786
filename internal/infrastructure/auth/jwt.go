package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/cardledger/internal/domain"
)

// Claims represents the JWT claims. The user ID is carried in the
// user_id claim and falls back to the standard subject.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Owner returns the user the token was issued for.
func (c *Claims) Owner() *domain.User {
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	return &domain.User{ID: id, Email: c.Email}
}

// Issuer is written into the iss claim of generated tokens.
const Issuer = "cardledger"

// clockSkew is tolerated on exp and nbf when verifying.
const clockSkew = 30 * time.Second

// JWTManager signs and verifies HS256 bearer tokens.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
	parser        *jwt.Parser
	now           func() time.Time
}

func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(clockSkew),
			jwt.WithIssuedAt(),
		),
		now: time.Now,
	}
}

// Generate issues a token for user that expires after the manager's
// token duration.
func (m *JWTManager) Generate(user *domain.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", fmt.Errorf("%w: user id is required", domain.ErrInvalidToken)
	}

	now := m.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

// Verify checks the signature and time claims of tokenString. Expired tokens
// map to domain.ErrExpiredToken, everything else to domain.ErrInvalidToken.
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.UserID == "" && claims.Subject == "" {
		return nil, fmt.Errorf("%w: no user in token", domain.ErrInvalidToken)
	}

	return claims, nil
}
