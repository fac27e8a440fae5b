// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/BurntSushi/toml"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv("BLOG_API_CONFIG_JSON")

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	// Token secrets come from the environment only. A missing secret is a
	// startup error, never a default.
	c.Token.AccessSecret = os.Getenv("TOKEN_SECRET")
	c.Token.RefreshSecret = os.Getenv("REFRESH_TOKEN_SECRET")

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	// never dump secrets
	c.Token.AccessSecret = ""
	c.Token.RefreshSecret = ""

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate minimal config settings for blog-api.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	if c.Token.AccessSecret == "" {
		return errors.Wrap(ErrAccessSecretMissing, invalidErrMessage)
	}

	if c.Token.RefreshSecret == "" {
		return errors.Wrap(ErrRefreshSecretMissing, invalidErrMessage)
	}

	if c.Token.AccessSecret == c.Token.RefreshSecret {
		return errors.Wrap(ErrSecretsEqual, invalidErrMessage)
	}

	if c.Token.AccessTTL == 0 {
		c.Token.AccessTTL = DefaultAccessTTL
	}

	if c.Token.RefreshTTL == 0 {
		c.Token.RefreshTTL = DefaultRefreshTTL
	}

	if c.Token.StoreTimeout == 0 {
		c.Token.StoreTimeout = DefaultStoreTimeout
	}

	return nil
}
