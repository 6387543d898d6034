package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshika/bizflow/internal/domain"
)

// UpsertBusiness ensures a business node exists with the latest display name.
func (r *Repository) UpsertBusiness(ctx context.Context, b domain.Business) error {
	if b.ID == "" {
		return errors.New("business id is required")
	}

	_, err := r.client.ExecuteWrite(ctx, upsertBusinessCypher, map[string]any{
		"businessId": b.ID,
		"name":       b.Name,
	})
	if err != nil {
		return fmt.Errorf("upsert business %s: %w", b.ID, err)
	}
	return nil
}

// ListBusinesses returns every business ordered by id.
func (r *Repository) ListBusinesses(ctx context.Context) ([]domain.Business, error) {
	res, err := r.client.ExecuteRead(ctx, listBusinessesCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("list businesses query: %w", err)
	}

	businesses := make([]domain.Business, 0, len(res.Records))
	for _, record := range res.Records {
		id := record.String("businessId")
		if id == "" {
			continue
		}
		businesses = append(businesses, domain.Business{
			ID:   id,
			Name: record.String("name"),
		})
	}
	return businesses, nil
}

// ResolveNames maps the supplied ids to display names in a single query. Ids
// without a node, or with an empty name, are absent from the result.
func (r *Repository) ResolveNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	res, err := r.client.ExecuteRead(ctx, resolveNamesCypher, map[string]any{
		"ids": ids,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve business names: %w", err)
	}

	for _, record := range res.Records {
		id := record.String("businessId")
		name := record.String("name")
		if id == "" || name == "" {
			continue
		}
		names[id] = name
	}
	return names, nil
}

const upsertBusinessCypher = `
MERGE (b:Business {businessId: $businessId})
SET b.name = $name
RETURN b.businessId AS businessId
`

const listBusinessesCypher = `
MATCH (b:Business)
RETURN b.businessId AS businessId,
       b.name AS name
ORDER BY b.businessId
`

const resolveNamesCypher = `
MATCH (b:Business)
WHERE b.businessId IN $ids
RETURN b.businessId AS businessId,
       b.name AS name
`
