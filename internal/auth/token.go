// Copyright (c) 2025-2026 SocialIT
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token issuance/validation errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TokenConfig holds signing parameters for access tokens.
type TokenConfig struct {
	Issuer     string        // e.g. "cms-go"
	AccessTTL  time.Duration // e.g. 24 * time.Hour
	SigningKey []byte        // HS256 secret
}

// AccessClaims are the claims carried by an access token. The subject is
// the user ID.
type AccessClaims struct {
	jwt.RegisteredClaims
}

// TokenService mints and validates HS256 access tokens.
type TokenService struct {
	cfg TokenConfig
}

// NewTokenService returns a TokenService using HS256 signing.
func NewTokenService(cfg TokenConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

// AccessTTL returns the configured access token lifetime.
func (t *TokenService) AccessTTL() time.Duration {
	return t.cfg.AccessTTL
}

// Issue signs an access token for the given user ID.
func (t *TokenService) Issue(userID string) (string, error) {
	now := time.Now().UTC()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(), // unique per token
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.cfg.SigningKey)
}

// Parse validates an access token and returns the user ID from its subject.
func (t *TokenService) Parse(tokenStr string) (string, error) {
	claims := &AccessClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return t.cfg.SigningKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}
	if !tok.Valid {
		return "", ErrInvalidToken
	}
	if claims.Issuer != t.cfg.Issuer {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
