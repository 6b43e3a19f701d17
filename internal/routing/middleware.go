package routing

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"dotdo/pkg/middleware"
	"dotdo/pkg/problems"
	"dotdo/pkg/session"
)

var decisions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "dotdo_route_decisions_total",
	Help: "Routing decisions by kind.",
}, []string{"kind"})

func init() { prometheus.MustRegister(decisions) }

// OriginalPathHeader carries the pre-rewrite path to downstream handlers.
const OriginalPathHeader = "X-Original-Path"

// FromHTTP builds the routing input. The session token comes from the
// session cookie (plain or __Secure- prefixed) or a bearer header.
func FromHTTP(r *http.Request, cookieName string) InboundRequest {
	return InboundRequest{
		Hostname:     r.Host,
		Path:         r.URL.Path,
		Query:        r.URL.Query(),
		RawQuery:     r.URL.RawQuery,
		SessionToken: SessionToken(r, cookieName),
	}
}

func SessionToken(r *http.Request, cookieName string) string {
	for _, name := range []string{cookieName, "__Secure-" + cookieName} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return session.BearerToken(r.Header.Get("Authorization"))
}

// Middleware applies Route to every request: redirects are answered here,
// rewrites and pass-throughs continue to next with the tenant in context.
func Middleware(rt *Router, cookieName string, probs problems.Catalog, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/healthz", "/metrics":
				next.ServeHTTP(w, r)
				return
			}
			d, err := rt.Route(FromHTTP(r, cookieName))
			if err != nil {
				log.Errorw("route", "err", err, "host", r.Host, "path", r.URL.Path,
					"request_id", middleware.RequestIDFrom(r.Context()))
				probs.Write(w, http.StatusBadGateway, "redirect-failed", "Redirect failed",
					"the sign-in redirect could not be constructed")
				return
			}
			decisions.WithLabelValues(string(d.Kind)).Inc()
			ctx := middleware.ContextWithTenant(r.Context(), d.Tenant)

			if d.RedirectTo != nil {
				loc := d.RedirectTo.Location(r.URL.RawQuery)
				log.Debugw("redirect", "kind", d.Kind, "host", d.Host, "path", r.URL.Path, "to", loc)
				http.Redirect(w, r.WithContext(ctx), loc, http.StatusTemporaryRedirect)
				return
			}
			if d.RewriteTo != "" {
				r2 := r.Clone(ctx)
				r2.URL = d.RewriteURL(r.URL)
				r2.RequestURI = r2.URL.RequestURI()
				r2.Header.Set(OriginalPathHeader, r.URL.Path)
				next.ServeHTTP(w, r2)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
