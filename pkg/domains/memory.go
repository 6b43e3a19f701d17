package domains

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memStore struct {
	mu       sync.RWMutex
	byDomain map[string]CustomDomain
	now      func() time.Time
}

// NewMemoryStore is the dev fallback when DATABASE_URL is not set.
func NewMemoryStore(seed ...CustomDomain) Store {
	m := &memStore{byDomain: map[string]CustomDomain{}, now: time.Now}
	for _, d := range seed {
		_, _ = m.UpsertCustomDomain(context.Background(), d)
	}
	return m
}

func (m *memStore) ListCustomDomains(ctx context.Context) ([]CustomDomain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]CustomDomain, 0, len(m.byDomain))
	for _, d := range m.byDomain {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out, nil
}

func (m *memStore) GetCustomDomain(ctx context.Context, domain string) (CustomDomain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.byDomain[Normalize(domain)]; ok {
		return d, nil
	}
	return CustomDomain{}, ErrNotFound
}

func (m *memStore) UpsertCustomDomain(ctx context.Context, d CustomDomain) (CustomDomain, error) {
	d.Domain = Normalize(d.Domain)
	if d.Domain == "" {
		return CustomDomain{}, ErrInvalidDomain
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC()
	if prev, ok := m.byDomain[d.Domain]; ok {
		d.ID = prev.ID
		d.CreatedAt = prev.CreatedAt
	} else {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	m.byDomain[d.Domain] = d
	return d, nil
}

func (m *memStore) DeleteCustomDomain(ctx context.Context, domain string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	domain = Normalize(domain)
	if _, ok := m.byDomain[domain]; !ok {
		return ErrNotFound
	}
	delete(m.byDomain, domain)
	return nil
}
