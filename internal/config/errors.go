package config

import (
	"errors"
)

var (
	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrAccessSecretMissing is returned when the TOKEN_SECRET env variable is not set.
	ErrAccessSecretMissing = errors.New("env TOKEN_SECRET can not be empty")

	// ErrRefreshSecretMissing is returned when the REFRESH_TOKEN_SECRET env variable is not set.
	ErrRefreshSecretMissing = errors.New("env REFRESH_TOKEN_SECRET can not be empty")

	// ErrSecretsEqual is returned when both token secrets carry the same value.
	// Separate secrets are the barrier that keeps a refresh token from passing
	// as an access token.
	ErrSecretsEqual = errors.New("TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
)
