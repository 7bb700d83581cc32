package agora

import (
	"errors"
	"os"
	"strings"
	"time"

	"Agora/config"
	"Agora/controllers"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var server = controllers.Server{}

func Run() {
	cfg, err := config.Load()
	setupLogging(cfg)
	if errors.Is(err, config.ErrAuthSecret) {
		log.Fatal().Err(err).Msg("refusing to start without the session token secret")
	} else if errors.Is(err, config.ErrGenerationConfig) {
		log.Fatal().Err(err).Msg("refusing to start without article generation")
	} else if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Warn().Err(err).Msg("sentry not initialised")
		}
		defer sentry.Flush(2 * time.Second)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := server.Initialize(cfg); err != nil {
		log.Fatal().Err(err).Msg("server initialisation failed")
	}

	server.Run(":" + strings.TrimSpace(cfg.Port))
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
