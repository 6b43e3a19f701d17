package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Precedence values for ROUTE_PRECEDENCE.
const (
	PrecedenceOverridesFirst = "overrides-first"
	PrecedenceTenantFirst    = "tenant-first"
)

type Config struct {
	Env       string
	HTTPAddr  string // edge-router
	AdminAddr string // admin-api-service

	AdminCORSOrigins []string

	// Domain registry (YAML). Empty uses the embedded defaults.
	DomainsFile string
	// Dev only: pretend every request arrived on this host.
	HostnameOverride string

	// Identity provider
	AuthBaseURL  string
	AuthProvider string

	// Sessions
	SessionSecret      string
	SessionCookie      string
	PropagationTimeout time.Duration
	PropagationScheme  string

	RoutePrecedence string
	ProblemBaseURL  string
	OTLPEndpoint    string

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:                env("DOTDO_ENV", "dev"),
		HTTPAddr:           env("DOTDO_HTTP_ADDR", ":8080"),
		AdminAddr:          env("ADMIN_HTTP_ADDR", ":8082"),
		AdminCORSOrigins:   envList("ADMIN_CORS_ORIGINS"),
		DomainsFile:        env("DOMAINS_FILE", ""),
		HostnameOverride:   env("HOSTNAME_OVERRIDE", ""),
		AuthBaseURL:        strings.TrimRight(env("AUTH_BASE_URL", ""), "/"),
		AuthProvider:       env("AUTH_PROVIDER", "github"),
		SessionSecret:      env("SESSION_SECRET", ""),
		SessionCookie:      env("SESSION_COOKIE", "next-auth.session-token"),
		PropagationTimeout: envDur("PROPAGATION_TIMEOUT_MS", 3000) * time.Millisecond,
		PropagationScheme:  env("PROPAGATION_SCHEME", "https"),
		RoutePrecedence:    env("ROUTE_PRECEDENCE", PrecedenceOverridesFirst),
		ProblemBaseURL:     env("PROBLEM_BASE_URL", ""),
		OTLPEndpoint:       env("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		RedisURL:           env("REDIS_URL", ""),
		DatabaseURL:        env("DATABASE_URL", ""),
	}
	if cfg.SessionSecret == "" {
		log.Println("[WARN] SESSION_SECRET not set - using an insecure dev secret")
		cfg.SessionSecret = "dev-insecure-session-secret"
	}
	if cfg.RedisURL == "" {
		log.Println("[WARN] REDIS_URL not set - using in-memory session store for dev")
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set - using in-memory custom domain store for dev")
	}
	if cfg.Env == "prod" && cfg.HostnameOverride != "" {
		log.Println("[WARN] HOSTNAME_OVERRIDE ignored in prod")
		cfg.HostnameOverride = ""
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return time.Duration(i)
		}
	}
	return time.Duration(def)
}

func envList(k string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(k), ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
