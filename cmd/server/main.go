// Command server runs the API: auth and sessions, properties, call
// history with tags, AI-agent configuration, the Cal.com proxy and the
// onboarding flow, plus the broker consumer that ingests call records.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/nicofratini/prospeo-bolt/internal/apperr"
	"github.com/nicofratini/prospeo-bolt/internal/config"
	"github.com/nicofratini/prospeo-bolt/internal/database"
	"github.com/nicofratini/prospeo-bolt/internal/handler"
	"github.com/nicofratini/prospeo-bolt/internal/integration/calcom"
	"github.com/nicofratini/prospeo-bolt/internal/integration/elevenlabs"
	"github.com/nicofratini/prospeo-bolt/internal/logger"
	"github.com/nicofratini/prospeo-bolt/internal/middleware"
	"github.com/nicofratini/prospeo-bolt/internal/onboarding"
	"github.com/nicofratini/prospeo-bolt/internal/queue"
	"github.com/nicofratini/prospeo-bolt/internal/repository"
	"github.com/nicofratini/prospeo-bolt/internal/router"
	"github.com/nicofratini/prospeo-bolt/internal/service"
	"github.com/nicofratini/prospeo-bolt/internal/validate"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()
	log := logger.Get()
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unreachable, response cache and rate limiting disabled")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	propertyRepo := repository.NewPropertyRepo(db)
	callRepo := repository.NewCallRepo(db)
	tagRepo := repository.NewTagRepo(db)
	callTagRepo := repository.NewCallTagRepo(db)
	agentRepo := repository.NewAgentRepo(db)

	calClient := calcom.New(cfg.CalComBaseURL, cfg.CalComAPIKey)
	voiceClient := elevenlabs.New(cfg.ElevenBaseURL, cfg.ElevenAPIKey)

	publish := func(ctx context.Context, ev queue.OnboardingCompletedEvent) error {
		return service.PublishOnboardingCompleted(ctx, cfg.RabbitURL, ev, log)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID)
	e.Use(middleware.Metrics)
	if rdb != nil {
		if rl := config.LoadRateLimitConfig(); rl.Enabled {
			e.Use(middleware.TokenBucket(rl, rdb))
		}
	}
	var cacheMW echo.MiddlewareFunc
	if rdb != nil {
		if cc := config.LoadCacheConfig(); cc.Enabled {
			cacheMW = middleware.RedisCache(cc, rdb)
		}
	}

	router.Register(e, router.Deps{
		Health: handler.NewHealthHandler(db),
		Auth: handler.NewAuthHandler(userRepo, tokenRepo,
			cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays, cfg.BcryptCost),
		Users:      handler.NewUserHandler(userRepo, tokenRepo, onboarding.DefaultFlow(), publish, log),
		Properties: handler.NewPropertyHandler(propertyRepo),
		Calls:      handler.NewCallHandler(callRepo),
		Tags:       handler.NewTagHandler(tagRepo, callTagRepo, callRepo),
		Agent:      handler.NewAgentHandler(agentRepo, voiceClient, cfg.DefaultVoiceID),
		Calcom:     handler.NewCalcomHandler(calClient),
		JWTSecret:  cfg.JWTSecret,
		Cache:      cacheMW,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Call records arrive over the broker, never over HTTP.
	go queue.StartCallConsumer(ctx, cfg.RabbitURL, callRepo, log)

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
