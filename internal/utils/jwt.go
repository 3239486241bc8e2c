// Package utils holds token signing and hashing helpers.
package utils

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every parse failure: bad signature, wrong
// algorithm, expiry, malformed claims.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. The jti makes two tokens
// issued in the same second distinct, so their hashes never collide.
type RefreshClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// SignedToken is a serialized JWT and its expiry.
type SignedToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken signs an HS256 access token for userID.
func NewAccessToken(secret, userID, role string, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := AccessClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken signs an HS256 refresh token for userID.
func NewRefreshToken(secret, userID string, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

func parse(secret, raw string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

// ParseAccessToken verifies signature, algorithm and expiry.
func ParseAccessToken(secret, raw string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := parse(secret, raw, &claims); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId", ErrInvalidToken)
	}
	return &claims, nil
}

// ParseRefreshToken verifies signature, algorithm and expiry.
func ParseRefreshToken(secret, raw string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := parse(secret, raw, &claims); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId", ErrInvalidToken)
	}
	return &claims, nil
}

// HashRefreshRaw returns the SHA-512 hex digest of a raw refresh token.
// Only this digest is stored.
func HashRefreshRaw(raw string) string {
	sum := sha512.Sum512([]byte(raw))
	return hex.EncodeToString(sum[:])
}
