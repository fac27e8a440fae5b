// Package web assembles the Fiber application: access logging, the
// authorization gate and the JSON handler routes.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bloniea/blog-api/internal/auth"
	"github.com/bloniea/blog-api/internal/config"
	fiberlogger "github.com/bloniea/blog-api/internal/logger/adapter/fiber"
	"github.com/bloniea/blog-api/internal/token"
	"github.com/bloniea/blog-api/internal/web/handler/article"
	"github.com/bloniea/blog-api/internal/web/handler/category"
	"github.com/bloniea/blog-api/internal/web/handler/image"
	"github.com/bloniea/blog-api/internal/web/handler/permission"
	"github.com/bloniea/blog-api/internal/web/handler/role"
	"github.com/bloniea/blog-api/internal/web/handler/session"
	"github.com/bloniea/blog-api/internal/web/handler/user"
	authmw "github.com/bloniea/blog-api/internal/web/middleware/auth"
)

const (
	// DefaultBasePath is the api mount point when the config leaves it empty.
	DefaultBasePath = "/api/v1/blog"

	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"
)

// Service represents the web service.
type Service struct {
	App   *fiber.App
	cfg   *config.Config
	alive atomic.Bool
	db    *gorm.DB
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: fail the health check first so
	// the LB stops routing here, then stop accepting.
	log.Info().Msgf(
		"graceful shutdown: return 503 for %d seconds to let LB remove this pod from active targets",
		s.cfg.Webserver.ShutDownTime,
	)

	s.alive.Store(false)
	time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "blog-api",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendStatus(fiber.StatusOK)
	})

	codec := token.New(
		cfg.Token.AccessSecret,
		cfg.Token.RefreshSecret,
		time.Duration(cfg.Token.AccessTTL)*time.Second,
		time.Duration(cfg.Token.RefreshTTL)*time.Second,
	)

	resolver := auth.NewResolver(auth.NewGormStore(db))
	gate := authmw.NewGate(codec, resolver, time.Duration(cfg.Token.StoreTimeout)*time.Second)

	basePath := cfg.Webserver.BasePath
	if basePath == "" {
		basePath = DefaultBasePath
	}

	api := app.Group(basePath)

	if err := session.Handler.Init(api, cfg, db, codec, gate); err != nil {
		log.Fatal().Err(err).Msg("failed to init session handler")
	}

	article.Handler.Init(api, cfg, db, gate)
	category.Handler.Init(api, cfg, db, gate)
	role.Handler.Init(api, cfg, db, gate)
	user.Handler.Init(api, cfg, db, gate)
	permission.Handler.Init(api, cfg, db, gate)
	image.Handler.Init(api, cfg, db, gate)

	return service
}
