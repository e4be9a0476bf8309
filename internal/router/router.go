package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "pet-health-tracker/docs"
	"pet-health-tracker/internal/adapters/auth/jwtauth"
	blobmem "pet-health-tracker/internal/adapters/blob/memory"
	limitmem "pet-health-tracker/internal/adapters/ratelimit/memory"
	"pet-health-tracker/internal/adapters/storage"
	"pet-health-tracker/internal/adapters/storage/memory"
	"pet-health-tracker/internal/domain/export"
	"pet-health-tracker/internal/domain/medications"
	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/domain/records"
	"pet-health-tracker/internal/domain/sessions"
	"pet-health-tracker/internal/domain/users"
	"pet-health-tracker/internal/middleware"
	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/platform/metrics"
	"pet-health-tracker/internal/platform/respond"
	"pet-health-tracker/internal/ports/blob"
	"pet-health-tracker/internal/ports/notify"
)

type Options struct {
	Logger  logger.Logger
	Metrics *metrics.Metrics // nil => sin /metrics

	// Si Storage es nil se usa un store en memoria.
	Storage  *storage.Bundle
	Photos   blob.Store
	Notifier notify.Notifier

	// Tokens firma y verifica JWT. nil => secreto efímero (dev/tests).
	Tokens  *jwtauth.Issuer
	Limiter sessions.LoginLimiter

	DevHeader    bool
	CookieSecure bool

	// APIRateRPS > 0 activa el limiter por IP sobre /api.
	APIRateRPS float64
	BcryptCost int
}

func NewRouter(opts Options) http.Handler {
	opts = withDefaults(opts)
	st := opts.Storage

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger, opts.Metrics))
	r.Use(middleware.Recover)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, apperr.New(apperr.NotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, apperr.New(apperr.MethodNotAllowed))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.Success(w, http.StatusOK, "", map[string]any{
			"status":  "ok",
			"storage": st.Driver,
		})
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Services por módulo
	usersSvc := users.NewService(st.Users).WithLogger(opts.Logger)
	if opts.BcryptCost > 0 {
		usersSvc.WithBcryptCost(opts.BcryptCost)
	}
	sessionsSvc := sessions.NewService(st.Tokens, opts.Tokens, usersSvc).
		WithLimiter(opts.Limiter).
		WithLogger(opts.Logger).
		WithMetrics(opts.Metrics)
	usersSvc.WithSessions(sessionsSvc)

	petsSvc := pets.NewService(st.Pets, st.Cascade).
		WithPhotos(opts.Photos).
		WithUsers(usersSvc).
		WithNotifier(opts.Notifier).
		WithLogger(opts.Logger).
		WithMetrics(opts.Metrics)
	recordsSvc := records.NewService(st.Records, petsSvc.Access())
	medsSvc := medications.NewService(st.Medications, petsSvc.Access()).
		WithNotifier(opts.Notifier).
		WithLogger(opts.Logger)
	exportSvc := export.NewService(recordsSvc)

	var apiLimiter *middleware.IPRateLimiter
	if opts.APIRateRPS > 0 {
		apiLimiter = middleware.NewIPRateLimiter(opts.APIRateRPS, int(opts.APIRateRPS*2), 10*time.Minute)
	}

	r.Route("/api", func(api chi.Router) {
		// Login/refresh/logout quedan fuera de AuthContext: el refresh
		// silencioso consumiría el refresh token antes que el handler.
		sessions.RegisterRoutes(api, sessionsSvc, opts.CookieSecure)

		api.Group(func(pr chi.Router) {
			pr.Use(middleware.AuthContext(middleware.AuthOptions{
				Verifier:     opts.Tokens,
				Refresher:    sessionsSvc,
				DevHeader:    opts.DevHeader,
				CookieSecure: opts.CookieSecure,
			}))
			pr.Use(middleware.RequireAuth)
			pr.Use(middleware.RateLimit(apiLimiter))

			users.RegisterRoutes(pr, usersSvc)
			pets.RegisterRoutes(pr, petsSvc)
			medications.RegisterRoutes(pr, medsSvc)
			export.RegisterRoutes(pr, exportSvc)
			records.RegisterRoutes(pr, recordsSvc)
		})
	})

	return r
}

func withDefaults(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Storage == nil {
		opts.Storage = storage.Memory(memory.New())
	}
	if opts.Photos == nil {
		opts.Photos = blobmem.New()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Noop{}
	}
	if opts.Limiter == nil {
		opts.Limiter = limitmem.New(5, time.Minute)
	}
	if opts.Tokens == nil {
		iss, err := jwtauth.New(uuid.NewString(), 30*time.Minute, 7*24*time.Hour)
		if err == nil {
			opts.Tokens = iss
		}
		opts.Logger.Warn("using ephemeral jwt secret", nil)
	}
	return opts
}
