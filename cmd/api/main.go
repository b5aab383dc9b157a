package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/credential"
	"taskboard/internal/db"
	"taskboard/internal/email"
	apihttp "taskboard/internal/http"
	"taskboard/internal/logging"
	"taskboard/internal/metrics"
	"taskboard/internal/repository"
	"taskboard/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Fatal("metrics register", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "up"); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	checks := map[string]apihttp.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return db.Ping(ctx, pool) },
	}

	var (
		redisClient *redis.Client
		journal     email.FailureJournal
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		}
		cancel()

		journal = email.NewRedisFailureJournal(redisClient, cfg.MailFailureJournalSize)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var emailSender email.Sender = email.NewDisabledSender("email sender not configured")
	if cfg.MailEnabled() {
		sender, err := email.NewSMTPSender(email.SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUser,
			Password:    cfg.SMTPPass,
			From:        cfg.SMTPFrom,
			FromName:    cfg.SMTPFromName,
			UseTLS:      cfg.SMTPUseTLS,
			FrontendURL: cfg.FrontendURL,
		})
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	} else {
		logger.Warn("smtp not configured, emails will not be delivered")
	}
	if journal != nil {
		emailSender = email.NewJournalingSender(emailSender, journal, logger)
	}

	userRepo := repository.NewPgUserRepository(pool)
	accountSvc := service.NewAccountService(
		logger,
		userRepo,
		credential.NewBcryptHasher(cfg.BcryptCost),
		credential.NewRandomTokenGenerator(),
		emailSender,
		service.AccountPolicy{
			VerificationTokenTTL:  cfg.VerificationTokenTTL,
			PasswordResetTokenTTL: cfg.PasswordResetTokenTTL,
			RequireVerifiedEmail:  cfg.LoginRequireVerifiedEmail,
			IdentifierPreference:  repository.IdentifierPreference(cfg.LoginIdentifierPreference),
		},
	)

	accountHandler := apihttp.NewAccountHandler(logger, accountSvc)
	healthHandler := apihttp.NewHealthHandler(logger, checks)
	var mailHandler *apihttp.MailHandler
	if journal != nil {
		mailHandler = apihttp.NewMailHandler(logger, journal)
	}
	router := apihttp.NewRouter(logger, accountHandler, mailHandler, healthHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.Duration("verification_token_ttl", cfg.VerificationTokenTTL),
		zap.Bool("login_requires_verified_email", cfg.LoginRequireVerifiedEmail),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
