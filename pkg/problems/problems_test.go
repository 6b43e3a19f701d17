package problems

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase(t *testing.T) {
	assert.Equal(t, "https://example.com/problems", New("").Base())
	assert.Equal(t, "https://dotdo.dev/problems", New(" https://dotdo.dev/problems/ ").Base())
	assert.Equal(t, "https://example.com/problems", Catalog{}.Base())
	assert.Equal(t, "https://dotdo.dev/problems/redirect-failed", New("https://dotdo.dev/problems").Type("redirect-failed"))
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	New("").Write(rec, http.StatusBadGateway, "redirect-failed", "Redirect failed", "detail")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var p Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, Problem{
		Type:   "https://example.com/problems/redirect-failed",
		Title:  "Redirect failed",
		Status: http.StatusBadGateway,
		Detail: "detail",
	}, p)
}
