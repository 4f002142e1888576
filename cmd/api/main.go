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

	"github.com/skillsharehub/marketplace/internal/api"
	"github.com/skillsharehub/marketplace/internal/api/handler"
	"github.com/skillsharehub/marketplace/internal/core/service"
	mongodb "github.com/skillsharehub/marketplace/internal/infrastructure/db/mongo"
	redisdb "github.com/skillsharehub/marketplace/internal/infrastructure/db/redis"
	"github.com/skillsharehub/marketplace/internal/infrastructure/paypal"
	"github.com/skillsharehub/marketplace/internal/infrastructure/storage"
	"github.com/skillsharehub/marketplace/internal/pkg/config"
	"github.com/skillsharehub/marketplace/pkg/logger"
)

// @title        Skill Share Hub API
// @version      1.0
// @description  Course marketplace: catalogue, free and PayPal-paid enrollment, ratings and administration.
// @BasePath     /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "skillsharehub-api",
	})

	ctx := context.Background()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "skillsharehub-api",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	// --- Repositories ---
	courseRepo := mongodb.NewCourseRepository(db)
	userRepo := mongodb.NewUserRepository(db)
	ratingRepo := mongodb.NewRatingRepository(db)
	orderRepo := mongodb.NewPaymentOrderRepository(db)

	if err := mongodb.EnsureIndexes(ctx, courseRepo, userRepo, ratingRepo, orderRepo); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	// --- Adapters ---
	gateway, err := paypal.New(paypal.Config{
		Mode:     cfg.PayPal.Mode,
		ClientID: cfg.PayPal.ClientID,
		Secret:   cfg.PayPal.Secret,
		BaseURL:  cfg.PayPal.BaseURL,
		Timeout:  cfg.PayPal.Timeout,
	}, logger.Component("paypal"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure PayPal")
	}

	files, err := storage.NewDisk(cfg.Upload.Dir, cfg.Upload.MaxBytes, logger.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	captureLock := redisdb.NewCaptureLock(rdb, cfg.Redis.LockTTL)

	// --- Services ---
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	courseService := service.NewCourseService(courseRepo, userRepo, ratingRepo, files, logger.Component("courses"))
	enrollmentService := service.NewEnrollmentService(courseRepo, userRepo, orderRepo, gateway, captureLock, service.EnrollmentConfig{
		ClientURL:      cfg.ClientURL,
		Currency:       cfg.PayPal.Currency,
		CaptureTimeout: cfg.PayPal.CaptureTimeout,
	}, logger.Component("enrollment"))
	ratingService := service.NewRatingService(ratingRepo, courseRepo, userRepo, logger.Component("ratings"))
	adminService := service.NewAdminService(userRepo, courseRepo, logger.Component("admin"))

	e, err := api.NewRouter(api.Deps{
		Log:            log,
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       cfg.JWTTTL,
		SecureCookie:   cfg.IsProduction(),
		UploadDir:      files.Dir(),
		MaxUploadBytes: cfg.Upload.MaxBytes,
		Auth:           authService,
		Courses:        courseService,
		Enrollment:     enrollmentService,
		Ratings:        ratingService,
		Admin:          adminService,
		Readiness:      []handler.DependencyCheck{handler.MongoCheck(db), handler.RedisCheck(rdb)},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serverErrors:
		log.Error().Err(err).Msg("HTTP server failed")
		exitCode = 1
	case sig := <-osSignals:
		log.Info().Str("signal", sig.String()).Msg("received OS signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
		exitCode = 1
	}
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close failed")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("mongo disconnect failed")
	}

	cancel()

	log.Info().Msg("server stopped")
	os.Exit(exitCode)
}
