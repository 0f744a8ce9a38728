package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lhgjose/propfair/internal/metrics"
	"github.com/lhgjose/propfair/internal/models"
)

// ListingTx is the transaction-scoped store surface reconciliation
// writes through. All four operations ride the same caller-owned
// transaction, so no partial write survives a rollback.
type ListingTx interface {
	GetByNaturalKey(ctx context.Context, source, externalID string) (*models.Listing, error)
	Insert(ctx context.Context, l *models.Listing) error
	Update(ctx context.Context, l *models.Listing) error
	InsertPriceHistory(ctx context.Context, ph *models.PriceHistory) error
}

// Action is the reconciliation decision for one record.
type Action string

// Reconciliation decisions.
const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Reconciler matches a validated record against stored state by
// natural key and decides create vs. update, emitting a price history
// row when the observed price changed.
type Reconciler struct {
	log   *logrus.Logger
	now   func() time.Time
	newID func() string
}

// NewReconciler creates a Reconciler using the wall clock and UUID ids.
func NewReconciler(log *logrus.Logger) *Reconciler {
	return &Reconciler{
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Reconcile applies one record to the store through tx.
//
// If no listing matches the natural key, a new one is created with all
// four timestamps set to now and no history row (there is no prior
// price to compare against). If one exists, last_seen_at and
// updated_at always advance; a price difference first appends a
// history row carrying the existing listing's id and the new price,
// then overwrites price and admin_fee; the mutable descriptive fields
// are refreshed unconditionally since they drift independently of
// price.
//
// Any store error propagates unwrapped in meaning: the caller owns the
// transaction and must roll it back.
func (r *Reconciler) Reconcile(ctx context.Context, tx ListingTx, rec *models.RawRecord, contentHash string) (Action, *models.Listing, error) {
	source, externalID := rec.NaturalKey()

	existing, err := tx.GetByNaturalKey(ctx, source, externalID)
	if err != nil && !errors.Is(err, models.ErrListingNotFound) {
		return "", nil, err
	}

	now := r.now().UTC()

	if existing == nil {
		l := models.NewListing(r.newID(), rec, contentHash, now)

		if err := tx.Insert(ctx, l); err != nil {
			return "", nil, err
		}

		return ActionCreated, l, nil
	}

	existing.LastSeenAt = now
	existing.UpdatedAt = now

	if *rec.Price != existing.Price {
		ph := &models.PriceHistory{
			ID:         r.newID(),
			ListingID:  existing.ID,
			Price:      *rec.Price,
			AdminFee:   rec.AdminFee,
			RecordedAt: now,
		}

		if err := tx.InsertPriceHistory(ctx, ph); err != nil {
			return "", nil, err
		}

		r.log.WithFields(logrus.Fields{
			"source":      source,
			"external_id": externalID,
			"old_price":   existing.Price,
			"new_price":   *rec.Price,
		}).Info("price change detected")
		metrics.PriceChangesTotal.Inc()

		existing.Price = *rec.Price
		existing.AdminFee = rec.AdminFee
	}

	existing.RefreshFrom(rec, contentHash)

	if err := tx.Update(ctx, existing); err != nil {
		return "", nil, err
	}

	return ActionUpdated, existing, nil
}
