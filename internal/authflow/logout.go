package authflow

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"dotdo/internal/routing"
	"dotdo/pkg/domains"
	"dotdo/pkg/session"
)

// Handler serves the logout endpoint on every first-party domain.
//
// Per logout: Start -> ClearLocalSession -> BroadcastToPeers -> Done.
// The broadcast is launched, never awaited, and only from first-party hosts.
type Handler struct {
	codec  *session.Codec
	store  session.Store
	prop   *session.Propagator
	res    *domains.Resolver
	cookie string
	log    *zap.SugaredLogger
}

func NewHandler(codec *session.Codec, store session.Store, prop *session.Propagator, res *domains.Resolver, cookie string, log *zap.SugaredLogger) *Handler {
	return &Handler{codec: codec, store: store, prop: prop, res: res, cookie: cookie, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get(session.LogoutPath, h.Logout)
	r.Post(session.LogoutPath, h.Logout)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	host := h.res.Host(r.Host)
	token := routing.SessionToken(r, h.cookie)
	q := r.URL.Query()
	fromPeer := q.Get(session.PropagatedParam) == "1"

	// ClearLocalSession. A missing or malformed token is already logged out.
	if claims, err := h.codec.Parse(token); err == nil {
		if err := h.store.Revoke(ctx, host, claims.Subject); err != nil {
			h.log.Warnw("session revoke failed", "domain", host, "sub", claims.Subject, "err", err)
		}
	} else if token != "" {
		h.log.Debugw("logout with unusable token, treating as logged out", "domain", host)
	}
	h.expireCookies(w)

	if fromPeer {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// BroadcastToPeers. Tenant custom domains hold no first-party session to
	// carry over, so only first-party origins fan out.
	if h.res.IsFirstParty(r.Host) {
		peers := h.prop.PropagateLogout(ctx, host, token)
		h.log.Infow("logout", "domain", host, "peers", len(peers))
	} else {
		h.log.Infow("logout", "domain", host, "peers", 0)
	}

	http.Redirect(w, r, routing.SafeCallback(q), http.StatusFound)
}

func (h *Handler) expireCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: h.cookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	http.SetCookie(w, &http.Cookie{Name: "__Secure-" + h.cookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: true, SameSite: http.SameSiteLaxMode})
}
