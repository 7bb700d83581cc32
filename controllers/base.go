package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"Agora/auth"
	"Agora/cache"
	"Agora/config"
	"Agora/generation"
	"Agora/mailer"
	"Agora/middlewares"
	"Agora/models"
	"Agora/presence"
	"Agora/seed"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Server struct {
	DB     *gorm.DB
	Router *gin.Engine
	Config *config.Config
	Clock  clockwork.Clock

	// Coordinator is nil when article generation is disabled.
	Coordinator *generation.Coordinator
	// Session is the server's own observer session, shared by every
	// read-triggered check and never persisted.
	Session  *generation.Session
	Sweeper  *generation.Sweeper
	Presence *presence.Hub
	Mailer   mailer.Mailer

	checks sync.WaitGroup
}

// ===============================
// SERVER INITIALIZATION
// ===============================
func (server *Server) Initialize(cfg *config.Config) error {
	server.Config = cfg
	auth.SetSecret(cfg.AuthSecret)
	server.Clock = clockwork.NewRealClock()

	gormCfg := &gorm.Config{TranslateError: true}
	if cfg.IsProduction() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return fmt.Errorf("cannot connect to postgres: %w", err)
	}
	server.DB = db

	if err := models.AutoMigrate(server.DB); err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}
	if err := models.EnsureConstraints(server.DB); err != nil {
		log.Warn().Err(err).Msg("hall of fame constraints not ensured")
	}

	// Redis init (safe failure)
	if err := cache.Init(cfg.RedisURL); err != nil {
		log.Warn().Err(err).Msg("could not connect to redis, response caching disabled")
	}

	if cfg.SeedDemo {
		if err := seed.Load(server.DB, server.Clock.Now()); err != nil {
			log.Error().Err(err).Msg("error seeding demo data")
		}
	}

	server.Presence = presence.NewHub()
	server.Mailer = mailer.New(mailer.Config{
		APIKey:      cfg.SendGridAPIKey,
		FromEmail:   cfg.MailFrom,
		FromName:    cfg.SiteName,
		ProductName: cfg.SiteName,
		ProductLink: cfg.SiteURL,
	})

	if err := server.initGeneration(); err != nil {
		return err
	}

	server.setupRouter()
	return nil
}

func (server *Server) initGeneration() error {
	cfg := server.Config.Generation
	if cfg.Disabled {
		log.Warn().Msg("GENERATION_DISABLED=true, expired votes will not produce articles")
		return nil
	}

	generator, err := generation.NewHTTPGenerator(cfg.URL, cfg.ServiceKey, nil)
	if err != nil {
		return err
	}
	policy, err := generation.ParseFailurePolicy(cfg.FailurePolicy)
	if err != nil {
		return err
	}

	server.Coordinator = generation.NewCoordinator(
		generation.NewGormStore(server.DB),
		generator,
		generation.WithClock(server.Clock),
		generation.WithSettleDelay(cfg.SettleDelay),
		generation.WithFailurePolicy(policy),
	)
	server.Session = generation.NewSession()
	server.Sweeper = generation.NewSweeper(server.DB, server.Coordinator, server.Config.SweepSchedule)
	return server.Sweeper.Start()
}

func (server *Server) setupRouter() {
	if server.Clock == nil {
		server.Clock = clockwork.NewRealClock()
	}
	if server.Session == nil {
		server.Session = generation.NewSession()
	}
	if server.Presence == nil {
		server.Presence = presence.NewHub()
	}
	if server.Mailer == nil {
		server.Mailer = mailer.Noop{}
	}

	server.Router = gin.New()
	server.Router.Use(gin.Logger(), recoverWithSentry())
	server.Router.Use(middlewares.CORSMiddleware(server.Config.CORSOrigins))
	server.Router.Use(middlewares.RateLimitMiddleware())
	server.initializeRoutes()
}

// recoverWithSentry reports panics and answers 500.
func recoverWithSentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				sentry.CurrentHub().Recover(rec)
				log.Error().Interface("panic", rec).Str("path", c.FullPath()).Msg("recovered from panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
		}()
		c.Next()
	}
}

// Run serves until SIGINT/SIGTERM, then drains requests, the sweeper and
// any background checks.
func (server *Server) Run(addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go server.cleanupVisitors(ctx)

	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if server.Sweeper != nil {
		server.Sweeper.Stop()
	}
	server.checks.Wait()
	_ = cache.Close()
	sentry.Flush(2 * time.Second)
}

func (server *Server) cleanupVisitors(ctx context.Context) {
	ticker := server.Clock.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			middlewares.CleanupVisitors(30 * time.Minute)
		}
	}
}
