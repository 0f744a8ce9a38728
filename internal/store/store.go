// Package store provides data access for the listing store.
//
// ListingStore owns the listings and price_history relations. Writes
// performed during reconciliation ride a caller-owned transaction (see
// InTx); the ingestion coordinator acquires it before the first store
// access for a record and commits or rolls back before moving on, so
// no transaction ever spans more than one record. Read methods serve
// the external query API and use the pool directly.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lhgjose/propfair/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// maxListLimit is a defense-in-depth cap on limit values for list queries.
const maxListLimit = 1000

// Base contains shared dependencies for the store.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// marshalStrings encodes a string slice as JSON for a jsonb column,
// mapping nil to an empty array rather than SQL null.
func marshalStrings(vals []string) ([]byte, error) {
	if vals == nil {
		vals = []string{}
	}

	data, err := json.Marshal(vals)
	if err != nil {
		return nil, fmt.Errorf("marshalling string list: %w", err)
	}

	return data, nil
}
