package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := NewCodec("  ")
	assert.Error(t, err)
}

func TestIssueAndParse(t *testing.T) {
	c, err := NewCodec("s3cret")
	require.NoError(t, err)

	raw, err := c.Issue("user-1", "admin", time.Hour)
	require.NoError(t, err)

	cl, err := c.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", cl.Subject)
	assert.Equal(t, "admin", cl.Role)
	assert.NotEmpty(t, cl.SessionID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), cl.Expires, 5*time.Second)
}

func TestParseRejects(t *testing.T) {
	c, _ := NewCodec("s3cret")
	other, _ := NewCodec("different")

	expired, err := c.Issue("user-1", "", -time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue("user-1", "", time.Hour)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"three dots":   "a.b.c",
		"expired":      expired,
		"wrong secret": foreign,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := c.Parse(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken("Bearer "))
	assert.Equal(t, "", BearerToken(""))
}
