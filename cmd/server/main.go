// Command server runs the personnel directory and messaging API.
//
// @title                       Personnel Messaging API
// @version                     1.0
// @description                 Identity verification, authentication and messaging for organization personnel.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	_ "github.com/personnel-directory/messaging-api/docs"
	"github.com/personnel-directory/messaging-api/internal/api"
	"github.com/personnel-directory/messaging-api/internal/api/handler"
	"github.com/personnel-directory/messaging-api/internal/core/service"
	mongodb "github.com/personnel-directory/messaging-api/internal/infrastructure/db/mongo"
	redisdb "github.com/personnel-directory/messaging-api/internal/infrastructure/db/redis"
	"github.com/personnel-directory/messaging-api/internal/infrastructure/notify"
	"github.com/personnel-directory/messaging-api/internal/infrastructure/queue"
	"github.com/personnel-directory/messaging-api/internal/infrastructure/security"
	"github.com/personnel-directory/messaging-api/internal/pkg/config"
	"github.com/personnel-directory/messaging-api/pkg/idgen"
	"github.com/personnel-directory/messaging-api/pkg/logger"
)

const (
	shutdownTimeout = 15 * time.Second
	dedupWindow     = 10 * time.Minute
	mediaURLPrefix  = "/v1/media"
)

func main() {
	// 1. Configuration and logging
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "personnel-messaging",
	})
	log.Info().Str("env", cfg.Env).Msg("starting personnel messaging API")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Stores
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	personnelRepo := mongodb.NewPersonnelRepository(db)
	messageRepo := mongodb.NewMessageRepository(db)
	reactionRepo := mongodb.NewReactionRepository(db)
	threadRepo := mongodb.NewThreadRepository(db)
	blobs := mongodb.NewBlobStore(db, mediaURLPrefix)
	if err := mongodb.EnsureIndexes(ctx, personnelRepo, messageRepo, reactionRepo, threadRepo); err != nil {
		log.Fatal().Err(err).Msg("index setup failed")
	}

	sessions := redisdb.NewSessionStore(rdb)
	progress := redisdb.NewVerificationStore(rdb, cfg.Verification.VerificationTTL)

	ids, err := idgen.New(cfg.SnowflakeNode)
	if err != nil {
		log.Fatal().Err(err).Msg("id generator setup failed")
	}
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	// 3. Notifications: SMTP and the SMS gateway are optional; unset transports log instead.
	var email notify.EmailSender
	if cfg.SMTP.Host != "" {
		email = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}
	var sms notify.SMSSender
	if cfg.SMS.GatewayURL != "" {
		sms = notify.NewSMSGateway(notify.SMSConfig{
			GatewayURL: cfg.SMS.GatewayURL,
			APIKey:     cfg.SMS.APIKey,
			Sender:     cfg.SMS.Sender,
			Timeout:    cfg.SMS.Timeout,
		})
	}
	notifier := notify.NewRouter(email, sms, logger.Component("notify"))
	notifications := service.NewNotificationService(notifier, redisdb.NewDeliveryDedup(rdb, dedupWindow), logger.Component("notifications"))

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.NotifyWorkers, notifications, logger.Component("dispatcher"))
	dispatcher.Start(workerCtx)

	// 4. Services
	policy := service.MediaPolicy{MaxBytes: cfg.Media.MaxBytes, AllowedTypes: cfg.Media.AllowedTypes}
	otp := service.NewOTPEngine(personnelRepo, dispatcher, cfg.Verification.OTPTTL, logger.Component("otp"))

	services := api.Services{
		Verification: service.NewVerificationService(personnelRepo, progress, otp, hasher, logger.Component("verification")),
		Auth: service.NewAuthService(personnelRepo, sessions, hasher, ids, dispatcher, service.AuthConfig{
			JWTSecret:       cfg.Auth.JWTSecret,
			AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
			RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
			ResetTokenTTL:   cfg.Auth.ResetTokenTTL,
			FrontendURL:     cfg.FrontendURL,
		}, logger.Component("auth")),
		Personnel: service.NewPersonnelService(personnelRepo, ids, logger.Component("personnel")),
		Messages:  service.NewMessageService(messageRepo, reactionRepo, personnelRepo, threadRepo, blobs, ids, policy, logger.Component("messages")),
		Threads:   service.NewThreadService(threadRepo, messageRepo, personnelRepo, blobs, ids, policy, logger.Component("threads")),
		Blobs:     blobs,
	}

	maxUpload := cfg.Media.MaxBytes
	if maxUpload <= 0 {
		maxUpload = service.DefaultMediaMaxBytes
	}

	// 5. HTTP
	e := api.NewRouter(services, api.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		MaxUploadBytes:     maxUpload,
		Checks: map[string]handler.DependencyCheck{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	}, logger.Component("http"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	drainCtx, cancelDrain := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := dispatcher.Close(drainCtx); err != nil {
		log.Warn().Err(err).Msg("notification queues not fully drained")
	}
	cancelDrain()
	cancelWorkers()
	dispatcher.Wait()
	log.Info().Msg("stopped")
}
