package problems

import (
	"encoding/json"
	"net/http"
	"strings"
)

const fallbackBase = "https://example.com/problems"

// Catalog builds RFC 7807 problem documents under one base URL.
type Catalog struct {
	base string
}

// New picks the base URL. Order of precedence:
// 1. problemBase (exact base, e.g. https://mydomain.com/problems)
// 2. https://example.com/problems (fallback)
func New(problemBase string) Catalog {
	if b := strings.TrimSpace(problemBase); b != "" {
		return Catalog{base: strings.TrimRight(b, "/")}
	}
	return Catalog{base: fallbackBase}
}

func (c Catalog) Base() string {
	if c.base == "" {
		return fallbackBase
	}
	return c.base
}

// Type builds a full problem type URL for the given slug.
func (c Catalog) Type(slug string) string { return c.Base() + "/" + slug }

type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Write renders a problem+json response.
func (c Catalog) Write(w http.ResponseWriter, status int, slug, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:   c.Type(slug),
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
