package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dotdo/internal/authflow"
	"dotdo/internal/routing"
	"dotdo/internal/sites"
	"dotdo/pkg/config"
	"dotdo/pkg/db"
	"dotdo/pkg/domains"
	"dotdo/pkg/logger"
	"dotdo/pkg/middleware"
	"dotdo/pkg/problems"
	"dotdo/pkg/session"
)

func main() {
	// 1. Load configuration & initialize structured logger.
	cfg := config.Load()
	appLog := logger.New(cfg.Env)
	defer appLog.Sync()

	// 2. Build the domain registry once; it is read-only from here on.
	file, err := domains.LoadFile(cfg.DomainsFile)
	if err != nil {
		appLog.Fatalw("domains file", "path", cfg.DomainsFile, "err", err)
	}
	// Backends are optional outside prod: an unreachable one degrades to the
	// in-memory store instead of keeping the router down.
	degrade := func(what string, err error) {
		if cfg.Env == "prod" {
			appLog.Fatalw(what, "err", err)
		}
		appLog.Errorw(what+", using in-memory store", "err", err)
	}
	store := domains.NewMemoryStore()
	dbPool, err := db.Postgres(context.Background(), cfg, appLog)
	if err != nil {
		degrade("custom domain store", err)
	} else if dbPool != nil {
		defer dbPool.Close()
		if err := domains.EnsureSchema(context.Background(), dbPool); err != nil {
			appLog.Fatalw("schema", "err", err)
		}
		store = domains.NewPostgresStore(dbPool, appLog)
	}
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	custom, err := store.ListCustomDomains(loadCtx)
	cancelLoad()
	if err != nil {
		appLog.Warnw("custom domains unavailable, serving configured domains only", "err", err)
	}
	reg, err := domains.New(file, custom)
	if err != nil {
		appLog.Fatalw("domain registry", "err", err)
	}
	for _, d := range reg.Skipped() {
		appLog.Warnw("custom domain shadowed by configured domain", "domain", d)
	}
	resolver := domains.NewResolver(reg, cfg.HostnameOverride)
	appLog.Infow("domain registry ready", "domains", reg.Len(), "first_party", len(reg.FirstParty()), "default", reg.Default().Domain)

	// 3. Sessions and logout propagation.
	codec, err := session.NewCodec(cfg.SessionSecret)
	if err != nil {
		appLog.Fatalw("session codec", "err", err)
	}
	sessions := session.NewMemoryStore()
	rdb, err := db.Redis(context.Background(), cfg, appLog)
	if err != nil {
		degrade("session store", err)
	} else if rdb != nil {
		defer rdb.Close()
		sessions = session.NewRedisStore(rdb)
	}
	prop := session.NewPropagator(reg.FirstParty(), session.NewHTTPClient(), session.PropagatorOptions{
		Scheme:  cfg.PropagationScheme,
		Timeout: cfg.PropagationTimeout,
	}, appLog)
	defer prop.Close()

	// 4. Request router.
	rt, err := routing.New(resolver, routing.Options{
		AuthBaseURL:  cfg.AuthBaseURL,
		AuthProvider: cfg.AuthProvider,
		Precedence:   cfg.RoutePrecedence,
		Overrides:    routing.DefaultOverrides,
	})
	if err != nil {
		appLog.Fatalw("router", "err", err)
	}

	// 5. HTTP stack.
	router := chi.NewRouter()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recover(appLog))
	router.Use(middleware.Metrics())
	router.Use(middleware.Tracing(cfg, "dotdo-edge", appLog))
	router.Use(routing.Middleware(rt, cfg.SessionCookie, problems.New(cfg.ProblemBaseURL), appLog))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	router.Get("/metrics", promhttp.Handler().ServeHTTP)
	authflow.NewHandler(codec, sessions, prop, resolver, cfg.SessionCookie, appLog).RegisterRoutes(router)
	sites.RegisterRoutes(router, resolver, appLog)

	// 6. Serve until SIGINT/SIGTERM.
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		appLog.Infow("edge-router listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	<-stopCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	_ = middleware.ShutdownTracing(ctx)
	fmt.Println("edge-router stopped")
}
