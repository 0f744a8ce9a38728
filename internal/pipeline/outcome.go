package pipeline

import (
	"github.com/sirupsen/logrus"

	"github.com/lhgjose/propfair/internal/models"
)

// Status classifies what happened to one ingested record. Every record
// ends in exactly one of these; none silently disappears.
type Status string

// Record outcomes.
const (
	StatusCreated Status = "created"
	StatusUpdated Status = "updated"
	StatusDropped Status = "dropped"
	StatusFailed  Status = "failed"
)

// ReasonDuplicate is the drop reason for intra-run fingerprint repeats.
const ReasonDuplicate = "duplicate"

// Outcome is the result of ingesting one record.
type Outcome struct {
	Status  Status
	Reason  string          // set when Status is StatusDropped
	Err     error           // set when Status is StatusFailed
	Listing *models.Listing // set when Status is StatusCreated or StatusUpdated
}

// Dropped builds a recoverable drop outcome.
func Dropped(reason string) Outcome {
	return Outcome{Status: StatusDropped, Reason: reason}
}

// Failed builds a persistence failure outcome.
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// Summary reports a run's record counts: created, updated, dropped by
// reason, and failed. Failed records are rolled back and lost, so the
// counts plus the per-record logs are the only trace left for manual
// replay.
type Summary struct {
	Created int
	Updated int
	Failed  int
	Dropped map[string]int
}

// NewSummary creates an empty run summary.
func NewSummary() *Summary {
	return &Summary{Dropped: make(map[string]int)}
}

func (s *Summary) observe(o Outcome) {
	switch o.Status {
	case StatusCreated:
		s.Created++
	case StatusUpdated:
		s.Updated++
	case StatusDropped:
		s.Dropped[o.Reason]++
	case StatusFailed:
		s.Failed++
	}
}

// DroppedTotal returns the number of dropped records across reasons.
func (s *Summary) DroppedTotal() int {
	total := 0
	for _, n := range s.Dropped {
		total += n
	}

	return total
}

// Total returns the number of records that reached the pipeline.
func (s *Summary) Total() int {
	return s.Created + s.Updated + s.Failed + s.DroppedTotal()
}

// Fields renders the summary as structured log fields.
func (s *Summary) Fields() logrus.Fields {
	return logrus.Fields{
		"total":   s.Total(),
		"created": s.Created,
		"updated": s.Updated,
		"dropped": s.DroppedTotal(),
		"failed":  s.Failed,
	}
}
