package main

import (
	"context"
	"net/http"

	"dotdo/internal/adminapi"
	"dotdo/pkg/config"
	pdb "dotdo/pkg/db"
	"dotdo/pkg/domains"
	"dotdo/pkg/logger"
	"dotdo/pkg/session"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	file, err := domains.LoadFile(cfg.DomainsFile)
	if err != nil {
		log.Fatalf("domains file: %v", err)
	}
	// Configured domains only: used to reject platform-owned hostnames.
	reg, err := domains.New(file, nil)
	if err != nil {
		log.Fatalf("domain registry: %v", err)
	}

	var store domains.Store
	pool, err := pdb.Postgres(context.Background(), cfg, log)
	if err != nil {
		log.Fatalf("custom domain store: %v", err)
	}
	if pool != nil {
		if err := domains.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalf("ensure schema: %v", err)
		}
		store = domains.NewPostgresStore(pool, log)
	} else {
		store = domains.NewMemoryStore()
	}

	codec, err := session.NewCodec(cfg.SessionSecret)
	if err != nil {
		log.Fatalf("session codec: %v", err)
	}

	app := adminapi.New(log, store, reg, codec, adminapi.Config{
		HTTPAddr:    cfg.AdminAddr,
		CORSOrigins: cfg.AdminCORSOrigins,
	})

	log.Infof("admin-api listening at %s", cfg.AdminAddr)
	if err := http.ListenAndServe(cfg.AdminAddr, app.Handler()); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
