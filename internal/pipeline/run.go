package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lhgjose/propfair/internal/metrics"
	"github.com/lhgjose/propfair/internal/models"
)

// recordTimeout bounds one record's store interaction, lookup through
// commit. Expiry mid-record is equivalent to a rollback.
const recordTimeout = 30 * time.Second

// RecordTx is the per-record transaction the coordinator acquires
// before the reconciler's first store access and releases before
// returning the outcome.
type RecordTx interface {
	ListingTx
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// BeginFunc opens the per-record transaction against the store.
type BeginFunc func(ctx context.Context) (RecordTx, error)

// RecordSource yields raw records one at a time, in no particular
// order. Next returns io.EOF once the feed is exhausted; any other
// error describes a single undecodable record and the feed continues.
type RecordSource interface {
	Next() (*models.RawRecord, error)
}

// Runner coordinates one ingestion run. It owns the run-scoped seen
// set and the summary counters; construct a fresh Runner per run.
type Runner struct {
	begin      BeginFunc
	reconciler *Reconciler
	seen       *SeenSet
	summary    *Summary
	log        *logrus.Logger
}

// NewRunner creates a Runner for a single run.
func NewRunner(begin BeginFunc, log *logrus.Logger) *Runner {
	return &Runner{
		begin:      begin,
		reconciler: NewReconciler(log),
		seen:       NewSeenSet(),
		summary:    NewSummary(),
		log:        log,
	}
}

// Ingest runs one record through validate → fingerprint → dedup →
// reconcile, end to end. Drops short-circuit before any store access.
// A Failed outcome means the record's transaction was rolled back; it
// is logged with the natural key for manual replay and the run
// continues — there is no retry.
func (r *Runner) Ingest(ctx context.Context, rec *models.RawRecord) Outcome {
	start := time.Now()
	out := r.ingest(ctx, rec)

	r.observe(rec, out)
	metrics.RecordDuration.Observe(time.Since(start).Seconds())

	return out
}

func (r *Runner) ingest(ctx context.Context, rec *models.RawRecord) Outcome {
	if err := rec.Validate(); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return Dropped(verr.Reason)
		}

		return Dropped(err.Error())
	}

	hash := Fingerprint(rec)
	if r.seen.Check(hash) {
		return Dropped(ReasonDuplicate)
	}

	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	tx, err := r.begin(ctx)
	if err != nil {
		return Failed(err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	action, listing, err := r.reconciler.Reconcile(ctx, tx, rec, hash)
	if err != nil {
		return Failed(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Failed(err)
	}

	switch action {
	case ActionCreated:
		return Outcome{Status: StatusCreated, Listing: listing}
	default:
		return Outcome{Status: StatusUpdated, Listing: listing}
	}
}

// observe updates counters, metrics, and per-record logs.
func (r *Runner) observe(rec *models.RawRecord, out Outcome) {
	r.summary.observe(out)
	metrics.RecordsTotal.WithLabelValues(string(out.Status)).Inc()

	switch out.Status {
	case StatusDropped:
		metrics.DroppedTotal.WithLabelValues(out.Reason).Inc()
		r.log.WithField("reason", out.Reason).Info("record dropped")
	case StatusFailed:
		fields := logrus.Fields{}
		if rec.Source != nil && rec.ExternalID != nil {
			fields["source"] = *rec.Source
			fields["external_id"] = *rec.ExternalID
		}

		r.log.WithFields(fields).WithError(out.Err).Error("record failed, transaction rolled back")
	case StatusCreated, StatusUpdated:
		r.log.WithFields(logrus.Fields{
			"source":      out.Listing.Source,
			"external_id": out.Listing.ExternalID,
			"outcome":     string(out.Status),
		}).Debug("record reconciled")
	}
}

// Run drains the source through Ingest until io.EOF or context
// cancellation. Stopping between records is safe: no partial record
// state exists outside a transaction. Undecodable source records are
// counted as failed and the run continues.
func (r *Runner) Run(ctx context.Context, src RecordSource) *Summary {
	for {
		if err := ctx.Err(); err != nil {
			r.log.WithError(err).Warn("run cancelled between records")

			break
		}

		rec, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			r.summary.observe(Failed(err))
			metrics.RecordsTotal.WithLabelValues(string(StatusFailed)).Inc()
			r.log.WithError(err).Error("undecodable record")

			continue
		}

		r.Ingest(ctx, rec)
	}

	r.log.WithFields(r.summary.Fields()).Info("ingestion run finished")

	return r.summary
}

// Summary returns the run's counters so far.
func (r *Runner) Summary() *Summary {
	return r.summary
}
