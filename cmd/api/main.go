// @title       Pet Health Tracker API
// @version     1.0
// @BasePath    /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"pet-health-tracker/internal/adapters/auth/jwtauth"
	blobmem "pet-health-tracker/internal/adapters/blob/memory"
	blobs3 "pet-health-tracker/internal/adapters/blob/s3"
	notifynats "pet-health-tracker/internal/adapters/notify/nats"
	"pet-health-tracker/internal/adapters/notify/telegram"
	limitmem "pet-health-tracker/internal/adapters/ratelimit/memory"
	limitredis "pet-health-tracker/internal/adapters/ratelimit/redis"
	"pet-health-tracker/internal/adapters/storage"
	"pet-health-tracker/internal/config"
	"pet-health-tracker/internal/domain/sessions"
	"pet-health-tracker/internal/domain/users"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/metrics"
	"pet-health-tracker/internal/ports/blob"
	"pet-health-tracker/internal/ports/notify"
	"pet-health-tracker/internal/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("invalid config", map[string]any{"err": err})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", map[string]any{"err": err})
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logger.Logger) error {
	m := metrics.New("pethealth")

	store, err := storage.Open(ctx, storage.Config{
		Driver:      cfg.StorageDriver,
		MongoURI:    cfg.MongoURI,
		MongoDB:     cfg.MongoDB,
		PostgresDSN: cfg.PostgresDSN,
	})
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("storage ready", map[string]any{"driver": store.Driver})

	photos, err := openPhotos(ctx, cfg)
	if err != nil {
		return err
	}

	notifier, closeNotifier := openNotifier(cfg, log)
	defer closeNotifier()

	limiter, closeLimiter := openLimiter(ctx, cfg, log)
	defer closeLimiter()

	secret := cfg.JWTSecret
	if secret == "" {
		// Solo en modo dev: los tokens no sobreviven un reinicio.
		secret = uuid.NewString()
		log.Warn("JWT_SECRET not set, using an ephemeral secret", nil)
	}
	tokens, err := jwtauth.New(secret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return err
	}

	// Admin inicial: solo si la base no tiene usuarios.
	if _, err := users.NewService(store.Users).
		WithLogger(log).
		EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return err
	}

	handler := router.NewRouter(router.Options{
		Logger:       log,
		Metrics:      m,
		Storage:      store,
		Photos:       photos,
		Notifier:     notifier,
		Tokens:       tokens,
		Limiter:      limiter,
		DevHeader:    cfg.AuthDevHeader,
		CookieSecure: cfg.CookieSecure,
		APIRateRPS:   cfg.APIRateLimitRPS,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr, "dev_header": cfg.AuthDevHeader})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openPhotos(ctx context.Context, cfg config.Config) (blob.Store, error) {
	if cfg.BlobDriver != "s3" {
		return blobmem.New(), nil
	}
	return blobs3.New(ctx, blobs3.Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		PathStyle: cfg.S3PathStyle,
	})
}

// openNotifier arma NATS y/o Telegram según lo configurado. Un canal que no
// conecta se saltea con warning.
func openNotifier(cfg config.Config, log logger.Logger) (notify.Notifier, func()) {
	var (
		out    notify.Multi
		closer = func() {}
	)

	if cfg.NATSURL != "" {
		p, err := notifynats.Connect(cfg.NATSURL, cfg.AppName, log)
		if err != nil {
			log.Warn("nats unavailable, notifications disabled", map[string]any{"err": err})
		} else {
			out = append(out, p.WithPrefix("pethealth."))
			closer = p.Close
		}
	}

	if cfg.TelegramBotToken != "" {
		tg, err := telegram.New(telegram.DefaultBaseURL, cfg.TelegramBotToken, cfg.TelegramChatID, 5*time.Second)
		if err != nil {
			log.Warn("telegram disabled", map[string]any{"err": err})
		} else {
			out = append(out, tg)
		}
	}

	if len(out) == 0 {
		return notify.Noop{}, closer
	}
	return out, closer
}

func openLimiter(ctx context.Context, cfg config.Config, log logger.Logger) (sessions.LoginLimiter, func()) {
	if cfg.RedisURL != "" {
		l, err := limitredis.NewFromURL(ctx, cfg.RedisURL, cfg.LoginRateLimit, cfg.LoginRateWindow)
		if err == nil {
			return l, func() { _ = l.Close() }
		}
		log.Warn("redis unavailable, using in-process login limiter", map[string]any{"err": err})
	}
	return limitmem.New(cfg.LoginRateLimit, cfg.LoginRateWindow), func() {}
}
