package postgres

import (
	"context"
	"fmt"

	"github.com/widoyo/pbase-gto/internal/domain"
)

// ListTenants returns all tenants ordered by id.
func (s *Store) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, name, chat_id, timezone
FROM tenants
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.ChatID, &t.Timezone); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}

// LocationsByTenant returns a tenant's locations, optionally filtered to
// the given categories, ordered by id.
func (s *Store) LocationsByTenant(ctx context.Context, tenantID int64, categories ...domain.Category) ([]domain.Location, error) {
	query := `
SELECT id, tenant_id, name, category, timezone, alert1, alert2, alert3, latest_sampling
FROM locations
WHERE tenant_id = $1`
	args := []any{tenantID}
	if len(categories) > 0 {
		cats := make([]string, len(categories))
		for i, c := range categories {
			cats[i] = string(c)
		}
		query += ` AND category = ANY($2)`
		args = append(args, cats)
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []domain.Location
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.ID, &l.TenantID, &l.Name, &l.Category, &l.Timezone,
			&l.Alert1, &l.Alert2, &l.Alert3, &l.LatestSampling); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}
