package routing

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"dotdo/pkg/config"
	"dotdo/pkg/domains"
	"dotdo/pkg/session"
)

// ErrRedirect means the identity-provider URL could not be built.
var ErrRedirect = errors.New("redirect construction failed")

const (
	ProjectsPrefix = "/projects/"
	signinPath     = "/api/auth/signin"
	authReserved   = "/api/auth"
	callbackParam  = "callbackUrl"
)

// InboundRequest is the per-call routing input.
type InboundRequest struct {
	Hostname     string
	Path         string
	Query        url.Values
	RawQuery     string
	SessionToken string
}

// RedirectTarget is where the client is sent.
type RedirectTarget struct {
	URL           string
	PreserveQuery bool
}

// Location appends rawQuery when the target asks for it.
func (t RedirectTarget) Location(rawQuery string) string {
	if !t.PreserveQuery || rawQuery == "" {
		return t.URL
	}
	if strings.Contains(t.URL, "?") {
		return t.URL + "&" + rawQuery
	}
	return t.URL + "?" + rawQuery
}

type Kind string

const (
	KindPass      Kind = "pass"
	KindOverride  Kind = "override"
	KindAuth      Kind = "auth"
	KindProtected Kind = "protected"
	KindCustom    Kind = "custom"
)

// Decision is the outcome of Route. At most one of RewriteTo and RedirectTo
// is set; neither means serve the request as-is.
type Decision struct {
	Kind       Kind
	RewriteTo  string
	RedirectTo *RedirectTarget
	Tenant     domains.TenantRecord
	Host       string

	rewritePrefix string
}

// RewriteURL applies the tenant prefix to u, keeping its escaping and query.
func (d Decision) RewriteURL(u *url.URL) *url.URL {
	out := *u
	if d.rewritePrefix == "" {
		return &out
	}
	out.Path = d.rewritePrefix + pathOrRoot(u.Path)
	if u.RawPath != "" {
		out.RawPath = d.rewritePrefix + u.RawPath
	}
	return &out
}

// Override is a path that always redirects to one fixed URL, whatever host
// it arrived on.
type Override struct {
	Path          string
	Target        string
	PreserveQuery bool
}

// DefaultOverrides sends every /pricing to the functions.do pricing page.
var DefaultOverrides = []Override{
	{Path: "/pricing", Target: "https://functions.do/sites/functions.do/pricing", PreserveQuery: true},
}

var DefaultProtectedPrefixes = []string{"/account", "/dashboard"}

type Options struct {
	AuthBaseURL       string
	AuthProvider      string
	Precedence        string
	Overrides         []Override
	ProtectedPrefixes []string
}

type rule func(req InboundRequest, d *Decision) (bool, error)

// Router maps inbound requests to rewrites or redirects. It holds no
// mutable state.
type Router struct {
	res       *domains.Resolver
	opts      Options
	overrides map[string]Override
	rules     []rule
}

func New(res *domains.Resolver, opts Options) (*Router, error) {
	r := &Router{res: res, opts: opts, overrides: map[string]Override{}}
	for _, o := range opts.Overrides {
		if !strings.HasPrefix(o.Path, "/") {
			return nil, fmt.Errorf("override path %q must start with /", o.Path)
		}
		u, err := url.Parse(o.Target)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("override %s: target %q must be an absolute URL", o.Path, o.Target)
		}
		r.overrides[o.Path] = o
	}
	switch opts.Precedence {
	case "", config.PrecedenceOverridesFirst:
		r.rules = []rule{r.override, r.reserved, r.auth, r.protected, r.custom}
	case config.PrecedenceTenantFirst:
		r.rules = []rule{r.reserved, r.auth, r.protected, r.custom, r.override}
	default:
		return nil, fmt.Errorf("unknown route precedence %q", opts.Precedence)
	}
	return r, nil
}

// Route evaluates the rules in order; the first match wins.
func (r *Router) Route(req InboundRequest) (Decision, error) {
	if req.Query == nil {
		req.Query = url.Values{}
		if req.RawQuery != "" {
			req.Query, _ = url.ParseQuery(req.RawQuery)
		}
	}
	req.Path = pathOrRoot(req.Path)
	d := Decision{
		Kind:   KindPass,
		Tenant: r.res.Resolve(req.Hostname),
		Host:   r.res.Host(req.Hostname),
	}
	for _, rl := range r.rules {
		matched, err := rl(req, &d)
		if err != nil {
			return Decision{}, err
		}
		if matched {
			return d, nil
		}
	}
	return d, nil
}

func (r *Router) override(req InboundRequest, d *Decision) (bool, error) {
	o, ok := r.overrides[req.Path]
	if !ok {
		return false, nil
	}
	d.Kind = KindOverride
	d.RedirectTo = &RedirectTarget{URL: o.Target, PreserveQuery: o.PreserveQuery}
	return true, nil
}

// The identity provider's own endpoints are never rewritten.
func (r *Router) reserved(req InboundRequest, d *Decision) (bool, error) {
	if req.Path == authReserved || strings.HasPrefix(req.Path, authReserved+"/") {
		d.Kind = KindPass
		return true, nil
	}
	return false, nil
}

func (r *Router) auth(req InboundRequest, d *Decision) (bool, error) {
	var (
		target string
		err    error
	)
	switch req.Path {
	case "/login", "/signup":
		target, err = r.signinURL(SafeCallback(req.Query))
	case "/logout":
		target, err = withCallback(session.LogoutPath, SafeCallback(req.Query))
	default:
		return false, nil
	}
	if err != nil {
		return false, err
	}
	d.Kind = KindAuth
	d.RedirectTo = &RedirectTarget{URL: target}
	return true, nil
}

func (r *Router) protected(req InboundRequest, d *Decision) (bool, error) {
	if req.SessionToken != "" || !hasPrefix(req.Path, r.protectedPrefixes()) {
		return false, nil
	}
	cb := req.Path
	if req.RawQuery != "" {
		cb += "?" + req.RawQuery
	}
	target, err := r.signinURL(cb)
	if err != nil {
		return false, err
	}
	d.Kind = KindProtected
	d.RedirectTo = &RedirectTarget{URL: target}
	return true, nil
}

func (r *Router) custom(req InboundRequest, d *Decision) (bool, error) {
	if d.Host == "" || r.res.IsFirstParty(req.Hostname) {
		return false, nil
	}
	d.Kind = KindCustom
	d.rewritePrefix = ProjectsPrefix + d.Host
	d.RewriteTo = d.rewritePrefix + req.Path
	if req.RawQuery != "" {
		d.RewriteTo += "?" + req.RawQuery
	}
	return true, nil
}

func (r *Router) protectedPrefixes() []string {
	if r.opts.ProtectedPrefixes != nil {
		return r.opts.ProtectedPrefixes
	}
	return DefaultProtectedPrefixes
}

func (r *Router) signinURL(callback string) (string, error) {
	p := signinPath
	if r.opts.AuthProvider != "" {
		p += "/" + url.PathEscape(r.opts.AuthProvider)
	}
	return withCallback(r.opts.AuthBaseURL+p, callback)
}

// withCallback encodes callback exactly once into the query of base.
func withCallback(base, callback string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedirect, err)
	}
	if !strings.HasPrefix(base, "/") && (u.Scheme == "" || u.Host == "") {
		return "", fmt.Errorf("%w: %q is neither absolute nor rooted", ErrRedirect, base)
	}
	u.RawQuery = url.Values{callbackParam: {callback}}.Encode()
	return u.String(), nil
}

// SafeCallback keeps same-origin relative paths and replaces anything else
// with "/". Browsers drop tabs and newlines and read "\\" as "/", so a
// callback carrying either could still name another host.
func SafeCallback(q url.Values) string {
	cb := q.Get(callbackParam)
	if !strings.HasPrefix(cb, "/") || strings.HasPrefix(cb, "//") {
		return "/"
	}
	if strings.IndexFunc(cb, func(r rune) bool { return r < 0x20 || r == 0x7f || r == '\\' }) >= 0 {
		return "/"
	}
	u, err := url.Parse(cb)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return "/"
	}
	return cb
}

func hasPrefix(p string, prefixes []string) bool {
	for _, pre := range prefixes {
		if p == pre || strings.HasPrefix(p, pre+"/") {
			return true
		}
	}
	return false
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
