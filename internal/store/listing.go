package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lhgjose/propfair/internal/models"
)

// ListingStore handles listing and price history persistence.
type ListingStore struct {
	Base
}

// NewListingStore creates a new ListingStore.
func NewListingStore(base Base) *ListingStore {
	return &ListingStore{Base: base}
}

// BeginRecord starts the per-record write transaction and returns a
// store view bound to it. The caller owns the transaction: commit on
// success, rollback on any failure, before the next record.
func (s *ListingStore) BeginRecord(ctx context.Context) (*RecordTx, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return &RecordTx{TxStore: s.InTx(tx), tx: tx}, nil
}

// RecordTx couples the transaction-scoped store operations with the
// transaction controls the ingestion coordinator releases it through.
type RecordTx struct {
	*TxStore
	tx pgx.Tx
}

// Commit commits the record's transaction.
func (r *RecordTx) Commit(ctx context.Context) error {
	if err := r.tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing record transaction: %w", err)
	}

	return nil
}

// Rollback rolls the record's transaction back. After a successful
// commit it is a no-op error that callers may ignore.
func (r *RecordTx) Rollback(ctx context.Context) error {
	return r.tx.Rollback(ctx)
}

// InTx returns a view of the store bound to the given transaction.
// All writes through the view are atomic with the transaction; none
// survive a rollback.
func (s *ListingStore) InTx(tx pgx.Tx) *TxStore {
	return &TxStore{tx: tx}
}

// TxStore executes listing operations within a caller-owned transaction.
type TxStore struct {
	tx pgx.Tx
}

// GetByNaturalKey looks up a listing by exact match on both source and
// external_id. A record from a different source with the same
// external_id is a distinct listing, never merged.
func (t *TxStore) GetByNaturalKey(ctx context.Context, source, externalID string) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE source = $1 AND external_id = $2`

	row := t.tx.QueryRow(ctx, query, source, externalID)

	l, err := scanListing(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrListingNotFound
		}

		return nil, fmt.Errorf("looking up listing by natural key: %w", err)
	}

	return l, nil
}

// Insert persists a brand-new listing. A unique violation on the
// natural key means a concurrent run won the create race; it surfaces
// as models.ErrDuplicateKey.
func (t *TxStore) Insert(ctx context.Context, l *models.Listing) error {
	images, err := marshalStrings(l.Images)
	if err != nil {
		return err
	}

	amenities, err := marshalStrings(l.Amenities)
	if err != nil {
		return err
	}

	query := `INSERT INTO listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`

	_, err = t.tx.Exec(ctx, query,
		l.ID, l.ExternalID, l.Source, l.URL, l.Title, l.Description,
		l.Price, l.AdminFee, l.Bedrooms, l.Bathrooms, l.ParkingSpaces, l.Area,
		l.Estrato, l.Floor, l.TotalFloors, l.BuildingAge, l.PropertyCondition,
		l.Address, l.Neighborhood, l.City, l.Latitude, l.Longitude,
		images, amenities, l.ContentHash, l.IsActive,
		l.FirstSeenAt, l.LastSeenAt, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrDuplicateKey
		}

		return fmt.Errorf("inserting listing: %w", err)
	}

	return nil
}

// Update overwrites the mutable columns of an existing listing.
// first_seen_at and created_at are never written here.
func (t *TxStore) Update(ctx context.Context, l *models.Listing) error {
	images, err := marshalStrings(l.Images)
	if err != nil {
		return err
	}

	amenities, err := marshalStrings(l.Amenities)
	if err != nil {
		return err
	}

	query := `UPDATE listings SET
		url = $1, title = $2, description = $3,
		price = $4, admin_fee = $5,
		bedrooms = $6, bathrooms = $7, parking_spaces = $8, area = $9,
		estrato = $10, floor = $11, total_floors = $12, building_age = $13,
		property_condition = $14,
		address = $15, neighborhood = $16, city = $17, latitude = $18, longitude = $19,
		images = $20, amenities = $21, content_hash = $22,
		last_seen_at = $23, updated_at = $24
		WHERE id = $25`

	tag, err := t.tx.Exec(ctx, query,
		l.URL, l.Title, l.Description,
		l.Price, l.AdminFee,
		l.Bedrooms, l.Bathrooms, l.ParkingSpaces, l.Area,
		l.Estrato, l.Floor, l.TotalFloors, l.BuildingAge,
		l.PropertyCondition,
		l.Address, l.Neighborhood, l.City, l.Latitude, l.Longitude,
		images, amenities, l.ContentHash,
		l.LastSeenAt, l.UpdatedAt,
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("updating listing: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrListingNotFound
	}

	return nil
}

// InsertPriceHistory appends one observed price change. Rows are
// never mutated or deleted afterwards.
func (t *TxStore) InsertPriceHistory(ctx context.Context, ph *models.PriceHistory) error {
	query := `INSERT INTO price_history (id, listing_id, price, admin_fee, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := t.tx.Exec(ctx, query, ph.ID, ph.ListingID, ph.Price, ph.AdminFee, ph.RecordedAt)
	if err != nil {
		return fmt.Errorf("inserting price history: %w", err)
	}

	return nil
}
