package router

import (
	"database/sql"
	"net/http"

	_ "patient-clinical-history/docs"
	mem "patient-clinical-history/internal/adapters/storage/memory"
	pg "patient-clinical-history/internal/adapters/storage/postgres"
	rds "patient-clinical-history/internal/adapters/storage/redis"
	"patient-clinical-history/internal/domain/patients"
	"patient-clinical-history/internal/middleware"
	"patient-clinical-history/internal/platform/logger"
	"patient-clinical-history/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Store: DB => Postgres, Redis => Redis, ninguno => in-memory.
	DB             *sql.DB
	Redis          *redis.Client
	RedisKeyPrefix string

	Logger logger.Logger

	// CORSOrigins vacío => "*".
	CORSOrigins []string

	SyncStatusOnAppend bool
	MaxWriteAttempts   int
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// CORS va primero: el preflight se responde antes de loguear/autenticar.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Debug-User-ID", "X-Debug-User-Role"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var repo patients.Repository
	switch {
	case opts.DB != nil:
		repo = pg.NewPatientsRepo(opts.DB)
	case opts.Redis != nil:
		repo = rds.NewPatientsRepo(opts.Redis, opts.RedisKeyPrefix)
	default:
		repo = mem.NewPatientRepo()
	}

	svc := patients.NewService(repo, patients.Options{
		SyncStatusOnAppend: opts.SyncStatusOnAppend,
		MaxWriteAttempts:   opts.MaxWriteAttempts,
		Logger:             log,
	})
	patients.RegisterRoutes(r, svc, log)

	return r
}
