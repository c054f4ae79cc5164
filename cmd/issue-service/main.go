package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"issue-service/internal/auth"
	"issue-service/internal/client"
	"issue-service/internal/config"
	"issue-service/internal/db"
	httphandler "issue-service/internal/http"
	"issue-service/internal/http/middleware"
	"issue-service/internal/logger"
	"issue-service/internal/model"
	"issue-service/internal/outbox"
	"issue-service/internal/repository"
	"issue-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	notifier, identity := newFirebaseCollaborators(ctx, cfg, appLogger)

	storage, mediaDir := newStorage(ctx, cfg, appLogger)

	txManager := repository.NewTxManager(database)
	issueRepo := repository.NewIssueRepository(database)
	updateRepo := repository.NewUpdateRepository(database)
	remarkRepo := repository.NewRemarkRepository(database)
	historyRepo := repository.NewRemarkHistoryRepository(database)
	staffRepo := repository.NewStaffRepository(database)
	adminRepo := repository.NewAdminRepository(database)
	userRepo := repository.NewUserRepository(database)
	outboxRepo := repository.NewOutboxRepository(database)

	dispatcher := outbox.NewDispatcher(outboxRepo, cfg.Outbox.MaxAttempts, appLogger)
	dispatcher.Handle(model.OutboxMediaDelete, outbox.MediaDelete(storage))
	dispatcher.Handle(model.OutboxIdentityDelete, outbox.IdentityDelete(identity))
	relay := outbox.NewRelay(txManager, outboxRepo, dispatcher, cfg.Outbox.RelaySpec, cfg.Outbox.BatchSize, appLogger)

	tokenIssuer := auth.NewIssuer(cfg.Auth.AccessSecret, cfg.Auth.AccessTTL)
	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	userService := service.NewUserService(userRepo, notifier, cfg.Auth.AdminEmailDomain, appLogger)
	remarkService := service.NewRemarkService(txManager, issueRepo, remarkRepo, historyRepo, appLogger)
	issueService := service.NewIssueService(service.IssueServiceDeps{
		Tx:         txManager,
		Issues:     issueRepo,
		Updates:    updateRepo,
		Remarks:    remarkRepo,
		History:    historyRepo,
		Staff:      staffRepo,
		Outbox:     outboxRepo,
		Dispatcher: dispatcher,
		Storage:    storage,
		RemarkSvc:  remarkService,
		Reporters:  userService,
	}, appLogger)
	updateService := service.NewUpdateService(txManager, issueRepo, updateRepo, storage, notifier, appLogger)
	staffService := service.NewStaffService(service.StaffServiceDeps{
		Tx:              txManager,
		Staff:           staffRepo,
		Issues:          issueRepo,
		Outbox:          outboxRepo,
		Dispatcher:      dispatcher,
		Identity:        identity,
		Tokens:          tokenIssuer,
		DefaultPassword: cfg.Auth.StaffDefaultPassword,
	}, appLogger)
	adminService := service.NewAdminService(adminRepo, tokenIssuer, cfg.Auth.AdminEmailDomain, appLogger)

	if cfg.SeedStaff {
		if err := staffService.SeedDefaults(ctx, service.DefaultStaffSeeds(cfg.Auth.AdminEmailDomain)); err != nil {
			appLogger.Error().Err(err).Msg("failed to seed default staff")
		}
	}
	if _, err := adminService.BackfillCreatedAt(ctx); err != nil {
		appLogger.Error().Err(err).Msg("failed to backfill admin creation dates")
	}

	if err := relay.Start(); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to start outbox relay")
	}
	defer relay.Stop()

	mw := httphandler.Middlewares{
		Auth:       middleware.Auth(tokenParser),
		LoginLimit: middleware.NewRateLimiter(cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow).Middleware(),
	}
	if redisClient := newRedisClient(ctx, cfg, appLogger); redisClient != nil {
		defer redisClient.Close()
		mw.IssueQuota = middleware.IssueQuota(redisClient, cfg.Redis.IssueDailyLimit, "issue-quota", appLogger)
	}

	handler := httphandler.NewHandler(httphandler.Services{
		Issues:  issueService,
		Remarks: remarkService,
		Updates: updateService,
		Staff:   staffService,
		Admins:  adminService,
		Users:   userService,
	}, appLogger)
	router := httphandler.NewRouter(handler, mw, httphandler.RouterOptions{
		Env:      cfg.Environment,
		MediaDir: mediaDir,
	}, appLogger)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		appLogger.Info().Str("addr", addr).Msg("starting issue service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error().Err(err).Msg("failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newFirebaseCollaborators falls back to disabled implementations when Firebase is off or broken.
func newFirebaseCollaborators(ctx context.Context, cfg *config.Config, log zerolog.Logger) (service.Notifier, service.IdentityProvider) {
	app, err := client.NewFirebaseApp(ctx, cfg.Firebase)
	if err != nil {
		log.Error().Err(err).Msg("firebase unavailable, notifications disabled")
		return client.DisabledNotifier{}, client.DisabledIdentity{}
	}
	if app == nil {
		log.Info().Msg("firebase disabled")
		return client.DisabledNotifier{}, client.DisabledIdentity{}
	}

	var notifier service.Notifier = client.DisabledNotifier{}
	if fcm, err := client.NewFCMNotifier(ctx, app, log); err != nil {
		log.Error().Err(err).Msg("failed to init messaging client")
	} else {
		notifier = fcm
	}

	var identity service.IdentityProvider = client.DisabledIdentity{}
	if fb, err := client.NewFirebaseIdentity(ctx, app, cfg.Auth.StaffDefaultPassword); err != nil {
		log.Error().Err(err).Msg("failed to init auth client")
	} else {
		identity = fb
	}

	return notifier, identity
}

// newStorage returns the media store and, for local storage, the directory to serve.
func newStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (service.Storage, string) {
	if cfg.Storage.Driver == config.StorageDriverGCS {
		gcs, err := client.NewGCSStorage(ctx, cfg.Storage.GCSBucket, cfg.Firebase.CredentialsFile, cfg.Storage.PublicBaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init cloud storage")
		}
		return gcs, ""
	}

	local, err := client.NewDiskStorage(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init local storage")
	}
	return local, cfg.Storage.LocalDir
}

// newRedisClient returns nil when redis is not configured or not reachable.
func newRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, issue quota disabled")
		_ = rdb.Close()
		return nil
	}
	return rdb
}
