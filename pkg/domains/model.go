package domains

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

var (
	ErrUnknownGlow     = errors.New("unknown glow color")
	ErrDuplicateDomain = errors.New("duplicate domain")
	ErrInvalidDomain   = errors.New("invalid domain")
	ErrNotFound        = errors.New("domain not found")
)

// Glow is a brand accent color. Only the values below are valid.
type Glow string

const (
	GlowGold   Glow = "#b3a705"
	GlowRed    Glow = "#b30510"
	GlowGreen  Glow = "#05b2a6"
	GlowBlue   Glow = "#0510b3"
	GlowPurple Glow = "#9e7aff"
)

var glowByName = map[string]Glow{
	"gold":   GlowGold,
	"red":    GlowRed,
	"green":  GlowGreen,
	"blue":   GlowBlue,
	"purple": GlowPurple,
}

var palette = []Glow{GlowGold, GlowRed, GlowGreen, GlowBlue, GlowPurple}

// ParseGlow maps a configuration key (e.g. "red") to its color.
func ParseGlow(name string) (Glow, error) {
	if g, ok := glowByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGlow, name)
}

// GlowFor picks a stable palette color for domains without an explicit one.
func GlowFor(domain string) Glow {
	h := fnv.New32a()
	_, _ = h.Write([]byte(domain))
	return palette[h.Sum32()%uint32(len(palette))]
}

type Theme struct {
	GlowColor Glow `json:"glowColor"`
}

// TenantRecord is the resolved branding/config for a hostname.
type TenantRecord struct {
	Domain       string   `json:"domain"`
	DisplayName  string   `json:"displayName"`
	Description  string   `json:"description,omitempty"`
	Theme        Theme    `json:"theme"`
	IsFirstParty bool     `json:"isFirstParty"`
	Gateway      bool     `json:"gateway,omitempty"`     // matched an AI gateway pattern
	Provisioned  bool     `json:"provisioned,omitempty"` // synthesized from a reserved suffix
	Collections  []string `json:"collections,omitempty"`
}

// CustomDomain is a tenant-owned hostname provisioned through the admin API.
type CustomDomain struct {
	ID          string    `json:"id"`
	Domain      string    `json:"domain"`
	DisplayName string    `json:"displayName"`
	Description string    `json:"description,omitempty"`
	Glow        string    `json:"glow,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func synthesize(host string) TenantRecord {
	return TenantRecord{
		Domain:      host,
		DisplayName: host,
		Theme:       Theme{GlowColor: GlowFor(host)},
	}
}
