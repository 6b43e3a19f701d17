package domains

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Entry is one domain in the registry file.
type Entry struct {
	Domain      string   `yaml:"domain"`
	DisplayName string   `yaml:"displayName"`
	Description string   `yaml:"description"`
	Glow        string   `yaml:"glow"`
	FirstParty  bool     `yaml:"firstParty"`
	Collections []string `yaml:"collections"`
}

// File is the on-disk registry configuration.
type File struct {
	Default  string            `yaml:"default"`
	Suffixes []string          `yaml:"suffixes"`
	Gateways []string          `yaml:"gateways"`
	Aliases  map[string]string `yaml:"aliases"`
	Domains  []Entry           `yaml:"domains"`
}

type gateway struct {
	pattern string
	g       glob.Glob
}

// Registry maps hostnames to tenant records. It is built once and never
// mutated, so it is safe for concurrent reads without locking.
type Registry struct {
	byHost     map[string]TenantRecord
	aliases    map[string]string
	suffixes   []string
	gateways   []gateway
	def        TenantRecord
	firstParty []string
	skipped    []string
}

// New validates f and builds the registry. Custom domains are merged as
// non first-party records; a custom domain that collides with a configured
// one is skipped and reported by Skipped.
func New(f File, custom []CustomDomain) (*Registry, error) {
	r := &Registry{
		byHost:  map[string]TenantRecord{},
		aliases: map[string]string{},
	}
	for _, e := range f.Domains {
		rec, err := recordFromEntry(e)
		if err != nil {
			return nil, err
		}
		if _, dup := r.byHost[rec.Domain]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDomain, rec.Domain)
		}
		r.byHost[rec.Domain] = rec
		if rec.IsFirstParty {
			r.firstParty = append(r.firstParty, rec.Domain)
		}
	}
	sort.Strings(r.firstParty)

	for from, to := range f.Aliases {
		from, to = Normalize(from), Normalize(to)
		if from == "" || to == "" {
			return nil, fmt.Errorf("%w: alias %q -> %q", ErrInvalidDomain, from, to)
		}
		if _, ok := r.byHost[from]; ok {
			return nil, fmt.Errorf("%w: alias %s shadows a configured domain", ErrDuplicateDomain, from)
		}
		if _, ok := r.byHost[to]; !ok {
			return nil, fmt.Errorf("%w: alias %s points to unknown domain %s", ErrInvalidDomain, from, to)
		}
		r.aliases[from] = to
	}

	for _, s := range f.Suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, ".") {
			s = "." + s
		}
		r.suffixes = append(r.suffixes, s)
	}

	for _, p := range f.Gateways {
		g, err := glob.Compile(strings.ToLower(strings.TrimSpace(p)))
		if err != nil {
			return nil, fmt.Errorf("gateway pattern %q: %w", p, err)
		}
		r.gateways = append(r.gateways, gateway{pattern: p, g: g})
	}

	def, ok := r.byHost[Normalize(f.Default)]
	if !ok {
		return nil, fmt.Errorf("%w: default domain %q is not configured", ErrInvalidDomain, f.Default)
	}
	r.def = def

	for _, c := range custom {
		rec, err := recordFromCustom(c)
		if err != nil {
			return nil, err
		}
		if _, taken := r.byHost[rec.Domain]; taken {
			r.skipped = append(r.skipped, rec.Domain)
			continue
		}
		if _, aliased := r.aliases[rec.Domain]; aliased {
			r.skipped = append(r.skipped, rec.Domain)
			continue
		}
		r.byHost[rec.Domain] = rec
	}
	return r, nil
}

func recordFromEntry(e Entry) (TenantRecord, error) {
	d := Normalize(e.Domain)
	if d == "" || strings.ContainsAny(d, "/ ") {
		return TenantRecord{}, fmt.Errorf("%w: %q", ErrInvalidDomain, e.Domain)
	}
	glow := GlowFor(d)
	if e.Glow != "" {
		g, err := ParseGlow(e.Glow)
		if err != nil {
			return TenantRecord{}, fmt.Errorf("domain %s: %w", d, err)
		}
		glow = g
	}
	name := e.DisplayName
	if name == "" {
		name = d
	}
	return TenantRecord{
		Domain:       d,
		DisplayName:  name,
		Description:  e.Description,
		Theme:        Theme{GlowColor: glow},
		IsFirstParty: e.FirstParty,
		Collections:  e.Collections,
	}, nil
}

func recordFromCustom(c CustomDomain) (TenantRecord, error) {
	return recordFromEntry(Entry{
		Domain:      c.Domain,
		DisplayName: c.DisplayName,
		Description: c.Description,
		Glow:        c.Glow,
	})
}

// Canonical applies alias mapping to an already normalized host.
func (r *Registry) Canonical(host string) string {
	if to, ok := r.aliases[host]; ok {
		return to
	}
	return host
}

// Lookup is an exact match on a normalized, canonical host.
func (r *Registry) Lookup(host string) (TenantRecord, bool) {
	rec, ok := r.byHost[host]
	return rec, ok
}

// MatchGateway reports whether host matches an AI gateway pattern.
func (r *Registry) MatchGateway(host string) bool {
	for _, gw := range r.gateways {
		if gw.g.Match(host) {
			return true
		}
	}
	return false
}

// Provisionable reports whether host is a single label directly under a
// reserved suffix (acme.do, not www.acme.do).
func (r *Registry) Provisionable(host string) bool {
	for _, s := range r.suffixes {
		if !strings.HasSuffix(host, s) {
			continue
		}
		label := strings.TrimSuffix(host, s)
		if label != "" && !strings.Contains(label, ".") {
			return true
		}
	}
	return false
}

func (r *Registry) Default() TenantRecord { return r.def }

// FirstParty returns the domains eligible for logout fan-out, sorted.
func (r *Registry) FirstParty() []string {
	out := make([]string, len(r.firstParty))
	copy(out, r.firstParty)
	return out
}

// IsFirstParty is true for configured first-party domains and gateway hosts.
func (r *Registry) IsFirstParty(host string) bool {
	if rec, ok := r.byHost[host]; ok {
		return rec.IsFirstParty
	}
	return r.MatchGateway(host)
}

// Skipped lists custom domains ignored because a configured domain owns them.
func (r *Registry) Skipped() []string { return r.skipped }

// Len is the number of exact-match records.
func (r *Registry) Len() int { return len(r.byHost) }
