package routing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dotdo/pkg/domains"
	"dotdo/pkg/logger"
	"dotdo/pkg/middleware"
	"dotdo/pkg/problems"
)

const testCookie = "next-auth.session-token"

type captured struct {
	called       bool
	path         string
	rawQuery     string
	requestURI   string
	originalPath string
	tenant       domains.TenantRecord
	hasTenant    bool
}

func serve(t *testing.T, rt *Router, req *http.Request) (*httptest.ResponseRecorder, *captured) {
	t.Helper()
	c := &captured{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.path = r.URL.Path
		c.rawQuery = r.URL.RawQuery
		c.requestURI = r.RequestURI
		c.originalPath = r.Header.Get(OriginalPathHeader)
		c.tenant, c.hasTenant = middleware.TenantFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := Middleware(rt, testCookie, problems.New(""), logger.Nop())(next)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, c
}

func TestMiddlewareRewritesCustomHost(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://docs.acme.com/guide?x=1", nil)
	rec, c := serve(t, testRouter(t, ""), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, c.called)
	assert.Equal(t, "/projects/docs.acme.com/guide", c.path)
	assert.Equal(t, "x=1", c.rawQuery)
	assert.Equal(t, "/projects/docs.acme.com/guide?x=1", c.requestURI)
	assert.Equal(t, "/guide", c.originalPath)
	require.True(t, c.hasTenant)
	assert.Equal(t, "Acme Docs", c.tenant.DisplayName)
}

func TestMiddlewarePassesFirstParty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://database.do/docs", nil)
	_, c := serve(t, testRouter(t, ""), req)

	require.True(t, c.called)
	assert.Equal(t, "/docs", c.path)
	assert.Empty(t, c.originalPath)
	assert.Equal(t, "database.do", c.tenant.Domain)
}

func TestMiddlewareRedirects(t *testing.T) {
	rt := testRouter(t, "")

	rec, c := serve(t, rt, httptest.NewRequest(http.MethodGet, "http://functions.do/login", nil))
	assert.False(t, c.called)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/api/auth/signin/github?callbackUrl=%2F", rec.Header().Get("Location"))

	rec, _ = serve(t, rt, httptest.NewRequest(http.MethodGet, "http://acme.example.com/pricing?plan=team", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "https://functions.do/sites/functions.do/pricing?plan=team", rec.Header().Get("Location"))
}

func TestMiddlewareProtectedHonorsSessionCookie(t *testing.T) {
	rt := testRouter(t, "")

	rec, c := serve(t, rt, httptest.NewRequest(http.MethodGet, "http://functions.do/account", nil))
	assert.False(t, c.called)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "http://functions.do/account", nil)
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "tok"})
	_, c = serve(t, rt, req)
	assert.True(t, c.called)

	req = httptest.NewRequest(http.MethodGet, "http://functions.do/account", nil)
	req.AddCookie(&http.Cookie{Name: "__Secure-" + testCookie, Value: "tok"})
	_, c = serve(t, rt, req)
	assert.True(t, c.called)
}

func TestMiddlewareBypassesHealthAndMetrics(t *testing.T) {
	rt, err := New(testResolver(t), Options{AuthBaseURL: "://bad"})
	require.NoError(t, err)
	for _, p := range []string{"/healthz", "/metrics"} {
		_, c := serve(t, rt, httptest.NewRequest(http.MethodGet, "http://acme.example.com"+p, nil))
		assert.True(t, c.called)
		assert.Equal(t, p, c.path)
	}
}

func TestMiddlewareRedirectFailureIsProblem(t *testing.T) {
	rt, err := New(testResolver(t), Options{AuthBaseURL: "://bad"})
	require.NoError(t, err)

	rec, c := serve(t, rt, httptest.NewRequest(http.MethodGet, "http://functions.do/login", nil))
	assert.False(t, c.called)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var p problems.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "https://example.com/problems/redirect-failed", p.Type)
	assert.Equal(t, http.StatusBadGateway, p.Status)
}

func TestSessionTokenSources(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, SessionToken(req, testCookie))

	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", SessionToken(req, testCookie))

	req.AddCookie(&http.Cookie{Name: testCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", SessionToken(req, testCookie))
}
