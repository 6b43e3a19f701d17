package adminapi

import (
	"go.uber.org/zap"

	"dotdo/pkg/domains"
	"dotdo/pkg/openapi"
	"dotdo/pkg/session"
)

// Config holds admin-api specific configuration.
type Config struct {
	HTTPAddr    string
	CORSOrigins []string
}

// App is the admin-api application container.
// Handlers and middleware have methods on this type.
//
// Keep it lean: shared deps and config only.
// Request-scoped work should use context.
//
// reg is the configured registry (file only, no custom domains) and is used
// to refuse provisioning hostnames the platform already owns.
type App struct {
	log     *zap.SugaredLogger
	store   domains.Store
	reg     *domains.Registry
	codec   *session.Codec
	cfg     Config
	apiDocs *openapi.Registry
}

// New constructs App.
func New(log *zap.SugaredLogger, store domains.Store, reg *domains.Registry, codec *session.Codec, cfg Config) *App {
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:3001"}
	}
	app := &App{log: log, store: store, reg: reg, codec: codec, cfg: cfg}
	app.apiDocs = buildAPIDocs()
	return app
}
