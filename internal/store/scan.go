package store

import (
	"encoding/json"
	"fmt"

	"github.com/lhgjose/propfair/internal/models"
)

// listingColumns lists the columns selected for listing queries, in
// the order scanListing expects them.
const listingColumns = `id, external_id, source, url, title, description,
	price, admin_fee, bedrooms, bathrooms, parking_spaces, area,
	estrato, floor, total_floors, building_age, property_condition,
	address, neighborhood, city, latitude, longitude,
	images, amenities, content_hash, is_active,
	first_seen_at, last_seen_at, created_at, updated_at`

// scanListing scans a single row into a models.Listing.
func scanListing(scan func(dest ...any) error) (*models.Listing, error) {
	var l models.Listing
	var images, amenities []byte

	err := scan(
		&l.ID, &l.ExternalID, &l.Source, &l.URL, &l.Title, &l.Description,
		&l.Price, &l.AdminFee, &l.Bedrooms, &l.Bathrooms, &l.ParkingSpaces, &l.Area,
		&l.Estrato, &l.Floor, &l.TotalFloors, &l.BuildingAge, &l.PropertyCondition,
		&l.Address, &l.Neighborhood, &l.City, &l.Latitude, &l.Longitude,
		&images, &amenities, &l.ContentHash, &l.IsActive,
		&l.FirstSeenAt, &l.LastSeenAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(images, &l.Images); err != nil {
		return nil, fmt.Errorf("unmarshalling listing images: %w", err)
	}

	if err := json.Unmarshal(amenities, &l.Amenities); err != nil {
		return nil, fmt.Errorf("unmarshalling listing amenities: %w", err)
	}

	return &l, nil
}
