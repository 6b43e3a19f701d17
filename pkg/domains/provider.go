package domains

import (
	"context"
)

// Store persists tenant custom domains provisioned through the admin API.
// The edge router reads it once at startup.
type Store interface {
	ListCustomDomains(ctx context.Context) ([]CustomDomain, error)
	GetCustomDomain(ctx context.Context, domain string) (CustomDomain, error)
	// Upsert by domain; ID and CreatedAt are kept on update.
	UpsertCustomDomain(ctx context.Context, d CustomDomain) (CustomDomain, error)
	DeleteCustomDomain(ctx context.Context, domain string) error
}
