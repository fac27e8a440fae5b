package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the typed payload carried by every token. The resolver only
// needs RoleID; UserID identifies the principal for handlers and audit logs.
type Claims struct {
	RoleID uint   `json:"role_id"`
	UserID uint64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256 signed tokens. The access and refresh
// secrets are independent: a token signed under one never verifies under the
// other.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// New creates a Codec with the given secrets and lifetimes.
func New(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// IssueAccess signs a short-lived access token for the given principal.
func (c *Codec) IssueAccess(roleID uint, userID uint64) (string, error) {
	return sign(roleID, userID, c.accessSecret, c.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for the given principal.
func (c *Codec) IssueRefresh(roleID uint, userID uint64) (string, error) {
	return sign(roleID, userID, c.refreshSecret, c.refreshTTL)
}

// VerifyAccess validates an access token and returns its claims.
func (c *Codec) VerifyAccess(raw string) (*Claims, error) {
	return verify(raw, c.accessSecret)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (c *Codec) VerifyRefresh(raw string) (*Claims, error) {
	return verify(raw, c.refreshSecret)
}

func sign(roleID uint, userID uint64, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		RoleID: roleID,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret) //nolint:wrapcheck
}

func verify(raw string, secret []byte) (*Claims, error) {
	claims := new(Claims)

	_, err := jwt.ParseWithClaims(raw, claims,
		func(_ *jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}

		// signature mismatch, malformed token, wrong algorithm: all mean the
		// caller does not hold a token we signed.
		return nil, ErrInvalidSignature
	}

	return claims, nil
}
