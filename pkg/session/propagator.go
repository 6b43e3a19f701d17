package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// LogoutPath is served on every first-party domain.
const LogoutPath = "/api/auth/logout"

// PropagatedParam marks a logout that came from a peer and must not be
// broadcast again.
const PropagatedParam = "propagated"

var propagations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "dotdo_logout_propagations_total",
	Help: "Outbound peer logout calls by outcome.",
}, []string{"outcome"})

func init() { prometheus.MustRegister(propagations) }

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// NewHTTPClient returns a traced client that does not follow redirects;
// peers answer logout with a redirect and that counts as success.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

type PropagatorOptions struct {
	Scheme  string        // https unless testing
	Timeout time.Duration // per peer
}

// Propagator broadcasts a logout to every other first-party domain.
type Propagator struct {
	firstParty []string
	client     Doer
	scheme     string
	timeout    time.Duration
	log        *zap.SugaredLogger

	root context.Context
	stop context.CancelFunc
}

func NewPropagator(firstParty []string, client Doer, opts PropagatorOptions, log *zap.SugaredLogger) *Propagator {
	if opts.Scheme == "" {
		opts.Scheme = "https"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	root, stop := context.WithCancel(context.Background())
	return &Propagator{
		firstParty: append([]string(nil), firstParty...),
		client:     client,
		scheme:     opts.Scheme,
		timeout:    opts.Timeout,
		log:        log,
		root:       root,
		stop:       stop,
	}
}

// Peers is the invalidation set minus currentDomain.
func (p *Propagator) Peers(currentDomain string) []string {
	peers := make([]string, 0, len(p.firstParty))
	for _, d := range p.firstParty {
		if d != currentDomain {
			peers = append(peers, d)
		}
	}
	return peers
}

// PropagateLogout launches one call per peer and returns without waiting.
// Calls outlive the caller's request but not Close, and each is bounded by
// the per-peer timeout. Failures are logged and dropped.
func (p *Propagator) PropagateLogout(ctx context.Context, currentDomain, token string) []string {
	peers := p.Peers(currentDomain)
	detached := context.WithoutCancel(ctx)
	for _, peer := range peers {
		go p.notify(detached, currentDomain, peer, token)
	}
	return peers
}

func (p *Propagator) notify(ctx context.Context, origin, peer, token string) {
	defer func() {
		if rec := recover(); rec != nil {
			propagations.WithLabelValues("panic").Inc()
			p.log.Errorw("logout propagation panic", "peer", peer, "err", rec)
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	unhook := context.AfterFunc(p.root, cancel)
	defer unhook()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.peerURL(peer), nil)
	if err != nil {
		propagations.WithLabelValues("error").Inc()
		p.log.Warnw("logout propagation request", "peer", peer, "err", err)
		return
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Logout-Origin", origin)
	resp, err := p.client.Do(req)
	if err != nil {
		propagations.WithLabelValues("error").Inc()
		p.log.Warnw("logout propagation failed", "peer", peer, "err", err)
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		propagations.WithLabelValues("rejected").Inc()
		p.log.Warnw("logout propagation rejected", "peer", peer, "status", resp.StatusCode)
		return
	}
	propagations.WithLabelValues("ok").Inc()
	p.log.Debugw("logout propagated", "peer", peer, "status", resp.StatusCode)
}

func (p *Propagator) peerURL(peer string) string {
	q := url.Values{PropagatedParam: {"1"}}
	return fmt.Sprintf("%s://%s%s?%s", p.scheme, peer, LogoutPath, q.Encode())
}

// Close abandons in-flight calls. Used on shutdown.
func (p *Propagator) Close() { p.stop() }
