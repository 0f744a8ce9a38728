package pipeline

// SeenSet suppresses repeated fingerprints within a single ingestion
// run. It guards against one crawl pass yielding the same page twice
// (e.g. via multiple link paths); the same listing reappearing in a
// later run is the reconciler's job, so the set is constructed fresh
// per run, never persisted, and never shared across runs.
//
// Records are processed serially within a run, so SeenSet is not safe
// for concurrent use and must not be.
type SeenSet struct {
	seen map[string]struct{}
}

// NewSeenSet creates an empty seen set for one run.
func NewSeenSet() *SeenSet {
	return &SeenSet{seen: make(map[string]struct{})}
}

// Check inserts the fingerprint and reports whether it was already
// present.
func (s *SeenSet) Check(hash string) bool {
	if _, dup := s.seen[hash]; dup {
		return true
	}

	s.seen[hash] = struct{}{}

	return false
}

// Len returns the number of distinct fingerprints seen so far.
func (s *SeenSet) Len() int {
	return len(s.seen)
}
