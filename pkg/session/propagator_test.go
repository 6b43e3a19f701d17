package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingDoer struct {
	mu    sync.Mutex
	reqs  []*http.Request
	wg    sync.WaitGroup
	fail  map[string]error
	panic map[string]bool
	block chan struct{}
	errs  []error
}

func newRecordingDoer(calls int) *recordingDoer {
	d := &recordingDoer{fail: map[string]error{}, panic: map[string]bool{}}
	d.wg.Add(calls)
	return d
}

func (d *recordingDoer) Do(req *http.Request) (*http.Response, error) {
	defer d.wg.Done()
	d.mu.Lock()
	d.reqs = append(d.reqs, req)
	d.errs = append(d.errs, req.Context().Err())
	d.mu.Unlock()
	if d.block != nil {
		select {
		case <-d.block:
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}
	if d.panic[req.URL.Host] {
		panic("peer exploded")
	}
	if err := d.fail[req.URL.Host]; err != nil {
		return nil, err
	}
	return &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func (d *recordingDoer) hosts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.reqs))
	for _, r := range d.reqs {
		out = append(out, r.URL.Host)
	}
	sort.Strings(out)
	return out
}

func waitFor(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for peer calls")
	}
}

func newTestPropagator(d Doer) *Propagator {
	return NewPropagator([]string{"a.do", "b.do", "c.do"}, d, PropagatorOptions{Timeout: time.Second}, zap.NewNop().Sugar())
}

func TestPeersExcludesCurrent(t *testing.T) {
	p := newTestPropagator(newRecordingDoer(0))
	defer p.Close()
	assert.Equal(t, []string{"b.do", "c.do"}, p.Peers("a.do"))
	assert.Equal(t, []string{"a.do", "b.do", "c.do"}, p.Peers("acme.example.com"))
}

func TestPropagateLogoutCallsEachPeerOnce(t *testing.T) {
	d := newRecordingDoer(2)
	p := newTestPropagator(d)
	defer p.Close()

	peers := p.PropagateLogout(context.Background(), "a.do", "tok")
	assert.Equal(t, []string{"b.do", "c.do"}, peers)
	waitFor(t, &d.wg)

	assert.Equal(t, []string{"b.do", "c.do"}, d.hosts())
	for _, r := range d.reqs {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "https", r.URL.Scheme)
		assert.Equal(t, LogoutPath, r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get(PropagatedParam))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "a.do", r.Header.Get("X-Logout-Origin"))
	}
}

func TestPropagateLogoutWithoutTokenSendsNoAuthorization(t *testing.T) {
	d := newRecordingDoer(2)
	p := newTestPropagator(d)
	defer p.Close()

	p.PropagateLogout(context.Background(), "a.do", "")
	waitFor(t, &d.wg)
	for _, r := range d.reqs {
		assert.Empty(t, r.Header.Get("Authorization"))
	}
}

func TestPropagateLogoutIsolatesFailures(t *testing.T) {
	p := NewPropagator([]string{"a.do", "b.do", "c.do", "d.do"}, nil, PropagatorOptions{}, zap.NewNop().Sugar())
	defer p.Close()
	d := newRecordingDoer(3)
	d.fail["b.do"] = errors.New("connection refused")
	d.panic["c.do"] = true
	p.client = d

	assert.NotPanics(t, func() {
		p.PropagateLogout(context.Background(), "a.do", "tok")
	})
	waitFor(t, &d.wg)
	assert.Equal(t, []string{"b.do", "c.do", "d.do"}, d.hosts())
}

func TestPropagateLogoutDoesNotWait(t *testing.T) {
	d := newRecordingDoer(2)
	d.block = make(chan struct{})
	p := newTestPropagator(d)
	defer p.Close()

	start := time.Now()
	p.PropagateLogout(context.Background(), "a.do", "tok")
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	close(d.block)
	waitFor(t, &d.wg)
}

func TestPropagateLogoutOutlivesRequestContext(t *testing.T) {
	d := newRecordingDoer(2)
	p := newTestPropagator(d)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.PropagateLogout(ctx, "a.do", "tok")
	waitFor(t, &d.wg)

	for _, err := range d.errs {
		assert.NoError(t, err)
	}
}

func TestCloseAbandonsInFlightCalls(t *testing.T) {
	d := newRecordingDoer(2)
	d.block = make(chan struct{})
	p := NewPropagator([]string{"a.do", "b.do", "c.do"}, d, PropagatorOptions{Timeout: time.Minute}, zap.NewNop().Sugar())

	p.PropagateLogout(context.Background(), "a.do", "tok")
	p.Close()
	waitFor(t, &d.wg)
}

func TestPeerURL(t *testing.T) {
	p := NewPropagator(nil, nil, PropagatorOptions{Scheme: "http"}, zap.NewNop().Sugar())
	defer p.Close()
	assert.Equal(t, "http://b.do/api/auth/logout?propagated=1", p.peerURL("b.do"))
}

func TestNewHTTPClientDoesNotFollowRedirects(t *testing.T) {
	c := NewHTTPClient()
	require.NotNil(t, c.CheckRedirect)
	assert.ErrorIs(t, c.CheckRedirect(nil, nil), http.ErrUseLastResponse)
}
