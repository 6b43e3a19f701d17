package session

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrInvalidToken = errors.New("invalid session token")

// Claims is what the edge cares about in a session token.
type Claims struct {
	Subject   string
	SessionID string
	Role      string
	Expires   time.Time
}

// Codec signs and verifies HS256 session tokens. All first-party domains
// share the secret so a peer can verify a propagated logout.
type Codec struct {
	secret []byte
	skew   time.Duration
}

func NewCodec(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is empty")
	}
	return &Codec{secret: []byte(secret), skew: 30 * time.Second}, nil
}

// Issue mints a token for subject. Used by the admin tooling and tests; the
// identity provider issues tokens for end users.
func (c *Codec) Issue(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	b := jwt.NewBuilder().
		Subject(subject).
		JwtID(uuid.NewString()).
		IssuedAt(now).
		Expiration(now.Add(ttl))
	if role != "" {
		b = b.Claim("role", role)
	}
	tok, err := b.Build()
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, c.secret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// Parse verifies signature and expiry. Every failure maps to ErrInvalidToken.
func (c *Codec) Parse(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}
	tok, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, c.secret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(c.skew),
	)
	if err != nil || tok.Subject() == "" {
		return Claims{}, ErrInvalidToken
	}
	cl := Claims{Subject: tok.Subject(), SessionID: tok.JwtID(), Expires: tok.Expiration()}
	if v, ok := tok.Get("role"); ok {
		cl.Role, _ = v.(string)
	}
	return cl, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(authz string) string {
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}
