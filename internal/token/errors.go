package token

import "errors"

var (
	// ErrInvalidSignature is returned when a token does not verify under the
	// expected secret, or is not a well-formed signed token at all.
	ErrInvalidSignature = errors.New("token signature is invalid")

	// ErrExpired is returned when a token verifies but its expiry has passed.
	ErrExpired = errors.New("token is expired")
)
