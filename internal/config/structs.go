package config

import (
	"github.com/bloniea/blog-api/internal/logger"
)

const (
	// DefaultAccessTTL is the access token lifetime in seconds (6 hours).
	DefaultAccessTTL = 21600

	// DefaultRefreshTTL is the refresh token lifetime in seconds (7 days).
	DefaultRefreshTTL = 604800

	// DefaultStoreTimeout bounds a single permission resolution against the
	// store, in seconds.
	DefaultStoreTimeout = 3
)

// Token holds the signed token settings. The two secrets are independent:
// an access token must never verify under the refresh secret and vice versa.
type Token struct {
	AccessSecret  string `toml:"-" json:"-"` // env TOKEN_SECRET only
	RefreshSecret string `toml:"-" json:"-"` // env REFRESH_TOKEN_SECRET only
	AccessTTL     int    // seconds
	RefreshTTL    int    // seconds
	StoreTimeout  int    // seconds
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Token     Token
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string // domain name for the webserver
	Port         int    // listening port for the webserver
	ShutDownTime int    // wait time for shutdown
	URL          string // base url for the webserver
	BasePath     string // mount point of the api, e.g. /api/v1/blog
}
