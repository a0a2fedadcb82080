package repository

import (
	"context"
	"fmt"
	"time"
)

// CreateViewer registers a new anonymous viewer identity.
func (r *Repository) CreateViewer(ctx context.Context, viewerID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO viewers (id, created_at) VALUES ($1, $2)
		 ON CONFLICT (id) DO NOTHING`,
		viewerID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert viewer %s: %w", viewerID, err)
	}
	return nil
}

func (r *Repository) ViewerExists(ctx context.Context, viewerID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM viewers WHERE id = $1)`, viewerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query viewer id=%s: %w", viewerID, err)
	}
	return exists, nil
}

// Get viewer ids for page
func (r *Repository) GetViewerIDsPaginated(ctx context.Context, page, limit int) ([]string, error) {
	offset := (page - 1) * limit
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM viewers ORDER BY created_at, id LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query viewer ids for page %d: %w", page, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan viewer id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate viewer ids: %w", err)
	}
	return ids, nil
}

// Count total viewers
func (r *Repository) CountViewers(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM viewers`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count viewers: %w", err)
	}
	return total, nil
}
