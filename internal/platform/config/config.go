package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"patient-clinical-history/internal/platform/logger"
)

type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

type Config struct {
	Port string

	Backend       Backend
	DatabaseDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SyncStatusOnAppend bool

	OdinBaseURL string
	OdinAPIKey  string

	// CORSOrigins son los orígenes permitidos para el cliente web/Expo ("*" => cualquiera).
	CORSOrigins []string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Log logger.Options
}

// Load lee la configuración del entorno. Los valores mal formados son error;
// los ausentes toman el default.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:          env("PORT", "8080"),
		Backend:       Backend(strings.ToLower(env("STORE_BACKEND", string(BackendMemory)))),
		DatabaseDSN:   env("DB_DSN", ""),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		OdinBaseURL:   env("ODIN_BASE_URL", ""),
		OdinAPIKey:    env("ODIN_API_KEY", ""),
		CORSOrigins:   splitList(env("CORS_ORIGINS", "*")),
		Log: logger.Options{
			Level:  logger.ParseLevel(getenv("LOG_LEVEL")),
			Format: logger.ParseFormat(getenv("LOG_FORMAT")),
			App:    env("APP_NAME", "patient-clinical-history"),
		},
	}

	var errs []error

	switch cfg.Backend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if cfg.DatabaseDSN == "" {
			errs = append(errs, errors.New("DB_DSN is required when STORE_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND: unknown backend %q", cfg.Backend))
	}

	var err error
	if cfg.RedisDB, err = strconv.Atoi(env("REDIS_DB", "0")); err != nil {
		errs = append(errs, fmt.Errorf("REDIS_DB: %w", err))
	}
	if cfg.SyncStatusOnAppend, err = strconv.ParseBool(env("SYNC_STATUS_ON_APPEND", "false")); err != nil {
		errs = append(errs, fmt.Errorf("SYNC_STATUS_ON_APPEND: %w", err))
	}
	if cfg.ReadTimeout, err = time.ParseDuration(env("HTTP_READ_TIMEOUT", "5s")); err != nil {
		errs = append(errs, fmt.Errorf("HTTP_READ_TIMEOUT: %w", err))
	}
	if cfg.WriteTimeout, err = time.ParseDuration(env("HTTP_WRITE_TIMEOUT", "10s")); err != nil {
		errs = append(errs, fmt.Errorf("HTTP_WRITE_TIMEOUT: %w", err))
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(env("SHUTDOWN_TIMEOUT", "15s")); err != nil {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// AuthEnabled indica si hay Odin configurado; si no, modo dev (X-Debug-User-ID).
func (c Config) AuthEnabled() bool {
	return c.OdinBaseURL != "" && c.OdinAPIKey != ""
}

// splitList parte una lista separada por comas, descartando vacíos.
func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
