package adminapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"dotdo/pkg/domains"
)

type DomainBody struct {
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Glow        string `json:"glow"`
}

func (a *App) listDomains(w http.ResponseWriter, r *http.Request) {
	list, err := a.store.ListCustomDomains(r.Context())
	if err != nil {
		a.log.Errorw("list custom domains", "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []domains.CustomDomain{}
	}
	writeJSON(w, map[string]any{"domains": list}, http.StatusOK)
}

func (a *App) getDomain(w http.ResponseWriter, r *http.Request) {
	d, err := a.store.GetCustomDomain(r.Context(), chi.URLParam(r, "domain"))
	if errors.Is(err, domains.ErrNotFound) {
		http.Error(w, "domain not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, d, http.StatusOK)
}

func (a *App) putDomain(w http.ResponseWriter, r *http.Request) {
	domain := domains.Normalize(chi.URLParam(r, "domain"))
	if !validHostname(domain) {
		http.Error(w, "invalid domain", http.StatusBadRequest)
		return
	}
	var b DomainBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if b.Glow != "" {
		if _, err := domains.ParseGlow(b.Glow); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if a.platformOwned(domain) {
		http.Error(w, "domain is operated by the platform", http.StatusConflict)
		return
	}
	saved, err := a.store.UpsertCustomDomain(r.Context(), domains.CustomDomain{
		Domain:      domain,
		DisplayName: strings.TrimSpace(b.DisplayName),
		Description: strings.TrimSpace(b.Description),
		Glow:        strings.ToLower(strings.TrimSpace(b.Glow)),
	})
	if err != nil {
		a.log.Errorw("upsert custom domain", "domain", domain, "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	a.log.Infow("custom domain provisioned", "domain", domain, "by", adminFrom(r.Context()))
	writeJSON(w, saved, http.StatusOK)
}

func (a *App) deleteDomain(w http.ResponseWriter, r *http.Request) {
	domain := domains.Normalize(chi.URLParam(r, "domain"))
	err := a.store.DeleteCustomDomain(r.Context(), domain)
	if errors.Is(err, domains.ErrNotFound) {
		http.Error(w, "domain not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	a.log.Infow("custom domain removed", "domain", domain, "by", adminFrom(r.Context()))
	writeJSON(w, map[string]any{"ok": true}, http.StatusOK)
}

// platformOwned covers configured domains, aliases and gateway hosts.
func (a *App) platformOwned(domain string) bool {
	if a.reg.Canonical(domain) != domain {
		return true
	}
	if _, ok := a.reg.Lookup(domain); ok {
		return true
	}
	return a.reg.MatchGateway(domain)
}

func validHostname(h string) bool {
	if h == "" || len(h) > 253 || !strings.Contains(h, ".") {
		return false
	}
	for _, label := range strings.Split(h, ".") {
		if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, c := range label {
			if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
				return false
			}
		}
	}
	return true
}
