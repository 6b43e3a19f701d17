package domains

import (
	"net"
	"strings"
)

// Normalize lower-cases a Host header value and strips the port and any
// trailing dot.
func Normalize(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return ""
	}
	if hh, _, err := net.SplitHostPort(h); err == nil {
		h = hh
	} else if strings.HasPrefix(h, "[") && strings.HasSuffix(h, "]") {
		h = h[1 : len(h)-1]
	}
	return strings.TrimSuffix(h, ".")
}

// Resolver turns Host headers into tenant records.
type Resolver struct {
	reg      *Registry
	override string
}

// NewResolver builds a resolver. A non-empty override replaces every
// inbound host (local development).
func NewResolver(reg *Registry, hostnameOverride string) *Resolver {
	return &Resolver{reg: reg, override: Normalize(hostnameOverride)}
}

func (r *Resolver) Registry() *Registry { return r.reg }

// Host returns the normalized, alias-resolved host used for every lookup.
func (r *Resolver) Host(hostname string) string {
	if r.override != "" {
		hostname = r.override
	}
	return r.reg.Canonical(Normalize(hostname))
}

// Resolve never fails: unknown hosts get the default record.
func (r *Resolver) Resolve(hostname string) TenantRecord {
	h := r.Host(hostname)
	if h == "" {
		return r.reg.Default()
	}
	if rec, ok := r.reg.Lookup(h); ok {
		return rec
	}
	if r.reg.MatchGateway(h) {
		rec := synthesize(h)
		rec.IsFirstParty = true
		rec.Gateway = true
		return rec
	}
	if r.reg.Provisionable(h) {
		rec := synthesize(h)
		rec.Provisioned = true
		return rec
	}
	return r.reg.Default()
}

// IsFirstParty classifies the host itself, independent of which record
// Resolve falls back to.
func (r *Resolver) IsFirstParty(hostname string) bool {
	return r.reg.IsFirstParty(r.Host(hostname))
}
