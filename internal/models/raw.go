package models

// RawRecord is the unvalidated bag of fields handed over by a scraper.
// Required fields are pointers so that a field missing from the source
// payload is distinguishable from a zero value; Validate reports the
// first absent one by name.
type RawRecord struct {
	ExternalID *string `json:"external_id"`
	Source     *string `json:"source"`
	URL        *string `json:"url"`

	Title       *string `json:"title"`
	Description *string `json:"description,omitempty"`

	Price    *int64 `json:"price"`
	AdminFee *int64 `json:"admin_fee,omitempty"`

	Bedrooms          *int     `json:"bedrooms"`
	Bathrooms         *int     `json:"bathrooms"`
	ParkingSpaces     *int     `json:"parking_spaces"`
	Area              *float64 `json:"area"`
	Estrato           *int     `json:"estrato,omitempty"`
	Floor             *int     `json:"floor,omitempty"`
	TotalFloors       *int     `json:"total_floors,omitempty"`
	BuildingAge       *int     `json:"building_age,omitempty"`
	PropertyCondition *string  `json:"property_condition,omitempty"`

	Address      *string  `json:"address"`
	Neighborhood *string  `json:"neighborhood"`
	City         *string  `json:"city"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`

	Images    []string `json:"images,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
}

// requiredFields lists the required set in check order. The order is
// load-bearing: the first missing field names the rejection reason.
var requiredFields = []struct {
	name    string
	present func(r *RawRecord) bool
}{
	{"external_id", func(r *RawRecord) bool { return r.ExternalID != nil }},
	{"source", func(r *RawRecord) bool { return r.Source != nil }},
	{"url", func(r *RawRecord) bool { return r.URL != nil }},
	{"title", func(r *RawRecord) bool { return r.Title != nil }},
	{"price", func(r *RawRecord) bool { return r.Price != nil }},
	{"bedrooms", func(r *RawRecord) bool { return r.Bedrooms != nil }},
	{"bathrooms", func(r *RawRecord) bool { return r.Bathrooms != nil }},
	{"parking_spaces", func(r *RawRecord) bool { return r.ParkingSpaces != nil }},
	{"area", func(r *RawRecord) bool { return r.Area != nil }},
	{"address", func(r *RawRecord) bool { return r.Address != nil }},
	{"neighborhood", func(r *RawRecord) bool { return r.Neighborhood != nil }},
	{"city", func(r *RawRecord) bool { return r.City != nil }},
	{"latitude", func(r *RawRecord) bool { return r.Latitude != nil }},
	{"longitude", func(r *RawRecord) bool { return r.Longitude != nil }},
}

// Validate checks the required field set, then price and area ranges.
// The first failing check determines the rejection reason. It has no
// side effects; a valid record passes through unchanged.
func (r *RawRecord) Validate() error {
	for _, f := range requiredFields {
		if !f.present(r) {
			return &ValidationError{Reason: "missing required field: " + f.name}
		}
	}

	if *r.Price <= 0 {
		return &ValidationError{Reason: "invalid price"}
	}

	if *r.Area <= 0 {
		return &ValidationError{Reason: "invalid area"}
	}

	return nil
}

// NaturalKey returns the (source, external_id) pair reconciliation
// matches on. Callers must only use it on validated records.
func (r *RawRecord) NaturalKey() (source, externalID string) {
	return *r.Source, *r.ExternalID
}
