// Package auth issues and verifies the access tokens the HTTP layer uses.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quillform/internal/shared/config"
)

// Claims are the JWT claims carried by an access token.
type Claims struct {
	AccountID  uint   `json:"account_id"`
	AccountSID string `json:"account_sid"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies access tokens.
type JWTService struct {
	secret []byte
	expiry time.Duration
}

// NewJWTService creates a JWTService from auth config.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		expiry: time.Duration(cfg.AccessExpMinutes) * time.Minute,
	}
}

// Issue signs an access token for the account.
func (s *JWTService) Issue(accountID uint, accountSID string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		AccountID:  accountID,
		AccountSID: accountSID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates an access token.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
