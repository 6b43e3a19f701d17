package domains

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.UpsertCustomDomain(ctx, CustomDomain{Domain: "Acme.Example.com", DisplayName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "acme.example.com", first.Domain)
	assert.NotEmpty(t, first.ID)

	time.Sleep(time.Millisecond)
	second, err := s.UpsertCustomDomain(ctx, CustomDomain{Domain: "acme.example.com", DisplayName: "Acme Inc"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "Acme Inc", second.DisplayName)

	_, err = s.UpsertCustomDomain(ctx, CustomDomain{Domain: "beta.example.com"})
	require.NoError(t, err)

	list, err := s.ListCustomDomains(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "acme.example.com", list[0].Domain)

	got, err := s.GetCustomDomain(ctx, "ACME.example.com")
	require.NoError(t, err)
	assert.Equal(t, "Acme Inc", got.DisplayName)

	require.NoError(t, s.DeleteCustomDomain(ctx, "acme.example.com"))
	assert.ErrorIs(t, s.DeleteCustomDomain(ctx, "acme.example.com"), ErrNotFound)
	_, err = s.GetCustomDomain(ctx, "acme.example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRejectsEmptyDomain(t *testing.T) {
	_, err := NewMemoryStore().UpsertCustomDomain(context.Background(), CustomDomain{Domain: "  "})
	assert.ErrorIs(t, err, ErrInvalidDomain)
}
