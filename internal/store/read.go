package store

import (
	"context"
	"fmt"

	"github.com/lhgjose/propfair/internal/models"
)

// ListActive returns active listings for the serving API, optionally
// filtered by city, newest first, with has_more pagination.
func (s *ListingStore) ListActive(ctx context.Context, city string, limit, offset int) ([]models.Listing, bool, error) {
	if limit <= 0 {
		limit = 50
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	if offset < 0 {
		offset = 0
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + listingColumns + ` FROM listings WHERE is_active = TRUE`
	args := []any{}
	argIdx := 1

	if city != "" {
		query += fmt.Sprintf(" AND city = $%d", argIdx)
		args = append(args, city)
		argIdx++
	}

	query += " ORDER BY last_seen_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit+1, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying active listings: %w", err)
	}
	defer rows.Close()

	listings := make([]models.Listing, 0, limit+1)

	for rows.Next() {
		l, err := scanListing(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning listing row: %w", err)
		}

		listings = append(listings, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating listing rows: %w", err)
	}

	hasMore := len(listings) > limit
	if hasMore {
		listings = listings[:limit]
	}

	return listings, hasMore, nil
}

// PriceHistoryByListing returns recorded price changes for a listing,
// newest first.
func (s *ListingStore) PriceHistoryByListing(ctx context.Context, listingID string, limit, offset int) ([]models.PriceHistory, bool, error) {
	if limit <= 0 {
		limit = 50
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	if offset < 0 {
		offset = 0
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT id, listing_id, price, admin_fee, recorded_at
		FROM price_history
		WHERE listing_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.Pool.Query(ctx, query, listingID, limit+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("querying price history: %w", err)
	}
	defer rows.Close()

	changes := make([]models.PriceHistory, 0, limit+1)

	for rows.Next() {
		var ph models.PriceHistory

		if err := rows.Scan(&ph.ID, &ph.ListingID, &ph.Price, &ph.AdminFee, &ph.RecordedAt); err != nil {
			return nil, false, fmt.Errorf("scanning price history row: %w", err)
		}

		changes = append(changes, ph)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating price history rows: %w", err)
	}

	hasMore := len(changes) > limit
	if hasMore {
		changes = changes[:limit]
	}

	return changes, hasMore, nil
}
