package sites

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"dotdo/internal/routing"
	"dotdo/pkg/domains"
	"dotdo/pkg/middleware"
)

// Page is what the page tree would render; served as JSON here.
type Page struct {
	Scope  string               `json:"scope"` // sites | projects | host
	Domain string               `json:"domain"`
	Path   string               `json:"path"`
	Tenant domains.TenantRecord `json:"tenant"`
	// Path the client asked for before a tenant rewrite, if any.
	OriginalPath string `json:"originalPath,omitempty"`
}

type handler struct {
	res *domains.Resolver
	log *zap.SugaredLogger
}

// RegisterRoutes mounts the tenant-scoped page trees and the host
// catch-all.
func RegisterRoutes(r chi.Router, res *domains.Resolver, log *zap.SugaredLogger) {
	h := &handler{res: res, log: log}
	r.Get("/sites/{domain}", h.scoped("sites"))
	r.Get("/sites/{domain}/*", h.scoped("sites"))
	r.Get(routing.ProjectsPrefix+"{domain}", h.scoped("projects"))
	r.Get(routing.ProjectsPrefix+"{domain}/*", h.scoped("projects"))
	r.Get("/*", h.host)
}

func (h *handler) scoped(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		domain := domains.Normalize(chi.URLParam(r, "domain"))
		rest := "/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		h.write(w, Page{
			Scope:        scope,
			Domain:       domain,
			Path:         rest,
			Tenant:       h.res.Resolve(domain),
			OriginalPath: r.Header.Get(routing.OriginalPathHeader),
		})
	}
}

func (h *handler) host(w http.ResponseWriter, r *http.Request) {
	t, ok := middleware.TenantFrom(r.Context())
	if !ok {
		t = h.res.Resolve(r.Host)
	}
	h.write(w, Page{Scope: "host", Domain: h.res.Host(r.Host), Path: r.URL.Path, Tenant: t})
}

func (h *handler) write(w http.ResponseWriter, p Page) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil {
		h.log.Warnw("write page", "err", err)
	}
}
