package adminapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Handler builds the HTTP handler with routes and middleware.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Logger, chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(cors(a.cfg.CORSOrigins))
		ar.Get("/openapi.json", a.apiDocs.ServeHandler("dotdo-admin", "1"))
		ar.Group(func(pr chi.Router) {
			pr.Use(a.adminAuth)
			pr.Get("/domains", a.listDomains)
			pr.Get("/domains/{domain}", a.getDomain)
			pr.Put("/domains/{domain}", a.putDomain)
			pr.Delete("/domains/{domain}", a.deleteDomain)
		})
	})

	return r
}
