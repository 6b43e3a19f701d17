package domains

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgStore implements Store backed by PostgreSQL.
type pgStore struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

// NewPostgresStore constructs a PostgreSQL-backed custom domain store.
func NewPostgresStore(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Store {
	return &pgStore{dbPool: dbPool, log: log}
}

// EnsureSchema creates the tenant_domains table if missing. Idempotent.
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenant_domains (
  id uuid PRIMARY KEY,
  domain text UNIQUE NOT NULL,
  display_name text NOT NULL DEFAULT '',
  description text NOT NULL DEFAULT '',
  glow text NOT NULL DEFAULT '',
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS tenant_domains_updated_idx ON tenant_domains(updated_at);
`)
	return err
}

const customDomainColumns = `id::text, domain, display_name, description, glow, created_at, updated_at`

func scanCustomDomain(row pgx.Row) (CustomDomain, error) {
	var d CustomDomain
	err := row.Scan(&d.ID, &d.Domain, &d.DisplayName, &d.Description, &d.Glow, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// ListCustomDomains returns every provisioned domain ordered by name.
func (p *pgStore) ListCustomDomains(ctx context.Context) ([]CustomDomain, error) {
	rows, err := p.dbPool.Query(ctx, `SELECT `+customDomainColumns+` FROM tenant_domains ORDER BY domain`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CustomDomain
	for rows.Next() {
		d, err := scanCustomDomain(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetCustomDomain fetches one domain by name.
func (p *pgStore) GetCustomDomain(ctx context.Context, domain string) (CustomDomain, error) {
	d, err := scanCustomDomain(p.dbPool.QueryRow(ctx,
		`SELECT `+customDomainColumns+` FROM tenant_domains WHERE domain=$1`, Normalize(domain)))
	if errors.Is(err, pgx.ErrNoRows) {
		return CustomDomain{}, ErrNotFound
	}
	return d, err
}

// UpsertCustomDomain inserts or updates by domain name.
func (p *pgStore) UpsertCustomDomain(ctx context.Context, d CustomDomain) (CustomDomain, error) {
	d.Domain = Normalize(d.Domain)
	if d.Domain == "" {
		return CustomDomain{}, ErrInvalidDomain
	}
	id := d.ID
	if id == "" {
		id = uuid.NewString()
	}
	out, err := scanCustomDomain(p.dbPool.QueryRow(ctx, `
INSERT INTO tenant_domains(id, domain, display_name, description, glow)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (domain) DO UPDATE SET
  display_name=EXCLUDED.display_name,
  description=EXCLUDED.description,
  glow=EXCLUDED.glow,
  updated_at=NOW()
RETURNING `+customDomainColumns, id, d.Domain, d.DisplayName, d.Description, d.Glow))
	if err != nil {
		return CustomDomain{}, fmt.Errorf("upsert %s: %w", d.Domain, err)
	}
	p.log.Infow("custom domain saved", "domain", out.Domain, "id", out.ID)
	return out, nil
}

// DeleteCustomDomain removes a domain; ErrNotFound if absent.
func (p *pgStore) DeleteCustomDomain(ctx context.Context, domain string) error {
	tag, err := p.dbPool.Exec(ctx, `DELETE FROM tenant_domains WHERE domain=$1`, Normalize(domain))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
