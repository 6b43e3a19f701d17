package middleware

import (
	"context"

	"dotdo/pkg/domains"
)

type ctxTenantKey struct{}

// ContextWithTenant stores the resolved tenant for downstream handlers.
func ContextWithTenant(ctx context.Context, t domains.TenantRecord) context.Context {
	return context.WithValue(ctx, ctxTenantKey{}, t)
}

// TenantFrom returns the tenant stored by the routing middleware.
func TenantFrom(ctx context.Context) (domains.TenantRecord, bool) {
	t, ok := ctx.Value(ctxTenantKey{}).(domains.TenantRecord)
	return t, ok
}
