// Package auth verifies the bearer tokens workers present on WorkerHeartbeat
// and WorkerBlockReport calls. Tokens are plain HS256 JWTs; there is no
// refresh flow because workers re-register from scratch on restart.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Errors surfaced by token verification.
var (
	ErrInvalidToken        = errors.New("invalid worker token")
	ErrExpiredToken        = errors.New("worker token has expired")
	ErrInvalidSecretLength = errors.New("JWT secret must be at least 32 characters")
)

// Config configures the worker token verifier.
type Config struct {
	// Secret is the HMAC signing key shared with the worker enrollment
	// process. Must be at least 32 characters.
	Secret string

	// Issuer is the expected token issuer claim. Default: "curvine-master".
	Issuer string

	// TokenDuration is the lifetime of issued worker tokens. Default: 24h.
	TokenDuration time.Duration
}

// WorkerClaims identifies the worker presenting the token.
type WorkerClaims struct {
	jwt.RegisteredClaims
	WorkerID string `json:"worker_id"`
}

// Verifier issues and validates worker bearer tokens.
type Verifier struct {
	config Config
}

// NewVerifier builds a Verifier from config, applying defaults.
func NewVerifier(config Config) (*Verifier, error) {
	if len(config.Secret) < 32 {
		return nil, ErrInvalidSecretLength
	}
	if config.Issuer == "" {
		config.Issuer = "curvine-master"
	}
	if config.TokenDuration == 0 {
		config.TokenDuration = 24 * time.Hour
	}
	return &Verifier{config: config}, nil
}

// Issue mints a bearer token for the given worker ID.
func (v *Verifier) Issue(workerID string) (string, error) {
	now := time.Now()
	claims := &WorkerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.config.Issuer,
			Subject:   workerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.config.TokenDuration)),
		},
		WorkerID: workerID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(v.config.Secret))
}

// Verify validates tokenString and returns the worker's claims.
func (v *Verifier) Verify(tokenString string) (*WorkerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &WorkerClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*WorkerClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
