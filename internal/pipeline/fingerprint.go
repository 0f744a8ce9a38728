// Package pipeline implements the ingestion pipeline: validation,
// fingerprinting, run-scoped deduplication, and transactional
// reconciliation of scraped records against the listing store.
package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/lhgjose/propfair/internal/models"
)

// fingerprintSubset is the canonical field subset hashed for dedup.
// Struct field order doubles as sorted key order in the JSON output.
// The scope is frozen at {external_id, price, source, title}: physical
// and location fields are deliberately excluded, so records differing
// only in area or bedrooms collapse to the same fingerprint.
type fingerprintSubset struct {
	ExternalID string `json:"external_id"`
	Price      int64  `json:"price"`
	Source     string `json:"source"`
	Title      string `json:"title"`
}

// Fingerprint computes the content hash of a validated record: the
// canonical JSON of the identity+price+title subset digested with
// SHA-256, as a lowercase hex string. The hash is stored on the
// listing as content_hash and governs intra-run suppression; cross-run
// identity is the reconciler's natural-key lookup, not this hash.
func Fingerprint(rec *models.RawRecord) string {
	subset := fingerprintSubset{
		ExternalID: *rec.ExternalID,
		Price:      *rec.Price,
		Source:     *rec.Source,
		Title:      *rec.Title,
	}

	payload, _ := json.Marshal(subset) //nolint:errcheck // static struct, cannot fail.
	sum := sha256.Sum256(payload)

	return hex.EncodeToString(sum[:])
}
