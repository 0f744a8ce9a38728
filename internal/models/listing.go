// Package models defines data types for the listing store.
package models

import "time"

// Listing is the canonical, durable state of one scraped property.
// It is identified by a generated opaque id; the natural key
// (source, external_id) is what reconciliation matches on across
// crawls and is unique among active and inactive rows.
type Listing struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Source     string `json:"source"`
	URL        string `json:"url"`

	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`

	Price    int64  `json:"price"`
	AdminFee *int64 `json:"admin_fee,omitempty"`

	Bedrooms          int     `json:"bedrooms"`
	Bathrooms         int     `json:"bathrooms"`
	ParkingSpaces     int     `json:"parking_spaces"`
	Area              float64 `json:"area"`
	Estrato           *int    `json:"estrato,omitempty"`
	Floor             *int    `json:"floor,omitempty"`
	TotalFloors       *int    `json:"total_floors,omitempty"`
	BuildingAge       *int    `json:"building_age,omitempty"`
	PropertyCondition *string `json:"property_condition,omitempty"`

	Address      string  `json:"address"`
	Neighborhood string  `json:"neighborhood"`
	City         string  `json:"city"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`

	Images    []string `json:"images"`
	Amenities []string `json:"amenities"`

	ContentHash string    `json:"content_hash"`
	IsActive    bool      `json:"is_active"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewListing builds a Listing from a validated record. All four
// timestamps start at now; first_seen_at and created_at never change
// afterwards.
func NewListing(id string, rec *RawRecord, contentHash string, now time.Time) *Listing {
	l := &Listing{
		ID:          id,
		ExternalID:  *rec.ExternalID,
		Source:      *rec.Source,
		Price:       *rec.Price,
		AdminFee:    rec.AdminFee,
		IsActive:    true,
		FirstSeenAt: now,
		LastSeenAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.RefreshFrom(rec, contentHash)

	return l
}

// RefreshFrom overwrites the mutable descriptive, physical, location,
// and media fields with the incoming record's values. Price and
// admin_fee are deliberately untouched: reconciliation only overwrites
// them when the price actually changed, after recording history.
// The record must already be validated.
func (l *Listing) RefreshFrom(rec *RawRecord, contentHash string) {
	l.URL = *rec.URL
	l.Title = *rec.Title
	l.Description = rec.Description

	l.Bedrooms = *rec.Bedrooms
	l.Bathrooms = *rec.Bathrooms
	l.ParkingSpaces = *rec.ParkingSpaces
	l.Area = *rec.Area
	l.Estrato = rec.Estrato
	l.Floor = rec.Floor
	l.TotalFloors = rec.TotalFloors
	l.BuildingAge = rec.BuildingAge
	l.PropertyCondition = rec.PropertyCondition

	l.Address = *rec.Address
	l.Neighborhood = *rec.Neighborhood
	l.City = *rec.City
	l.Latitude = *rec.Latitude
	l.Longitude = *rec.Longitude

	l.Images = rec.Images
	l.Amenities = rec.Amenities

	l.ContentHash = contentHash
}

// PriceHistory is one observed price change of a Listing. Rows are
// append-only: this pipeline never mutates or deletes them.
type PriceHistory struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	Price      int64     `json:"price"`
	AdminFee   *int64    `json:"admin_fee,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}
