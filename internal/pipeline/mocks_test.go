package pipeline

import (
	"context"
	"errors"
	"io"

	"github.com/lhgjose/propfair/internal/models"
)

// mockTx records calls and returns configured responses.
type mockTx struct {
	calls []string

	getByNaturalKey    func(ctx context.Context, source, externalID string) (*models.Listing, error)
	insert             func(ctx context.Context, l *models.Listing) error
	update             func(ctx context.Context, l *models.Listing) error
	insertPriceHistory func(ctx context.Context, ph *models.PriceHistory) error

	commitErr  error
	committed  bool
	rolledBack bool
}

func (m *mockTx) GetByNaturalKey(ctx context.Context, source, externalID string) (*models.Listing, error) {
	m.calls = append(m.calls, "GetByNaturalKey")
	return m.getByNaturalKey(ctx, source, externalID)
}

func (m *mockTx) Insert(ctx context.Context, l *models.Listing) error {
	m.calls = append(m.calls, "Insert")
	if m.insert == nil {
		return nil
	}
	return m.insert(ctx, l)
}

func (m *mockTx) Update(ctx context.Context, l *models.Listing) error {
	m.calls = append(m.calls, "Update")
	if m.update == nil {
		return nil
	}
	return m.update(ctx, l)
}

func (m *mockTx) InsertPriceHistory(ctx context.Context, ph *models.PriceHistory) error {
	m.calls = append(m.calls, "InsertPriceHistory")
	if m.insertPriceHistory == nil {
		return nil
	}
	return m.insertPriceHistory(ctx, ph)
}

func (m *mockTx) Commit(ctx context.Context) error {
	m.committed = true
	return m.commitErr
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if !m.committed {
		m.rolledBack = true
	}
	return nil
}

func (m *mockTx) called(name string) int {
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

// memStore is an in-memory stand-in for the listing store with real
// transaction semantics: writes are staged per transaction and only
// applied on commit, so rollback containment is observable.
type memStore struct {
	listings map[string]*models.Listing // keyed by source + "|" + external_id
	history  []models.PriceHistory

	beginCount int
	failOp     string // operation name that fails, "" for none
	failErr    error
}

func newMemStore() *memStore {
	return &memStore{listings: make(map[string]*models.Listing)}
}

func (m *memStore) begin(ctx context.Context) (RecordTx, error) {
	m.beginCount++
	if m.failOp == "begin" {
		return nil, m.failErr
	}
	return &memTx{store: m}, nil
}

func (m *memStore) historyFor(listingID string) []models.PriceHistory {
	var out []models.PriceHistory
	for _, ph := range m.history {
		if ph.ListingID == listingID {
			out = append(out, ph)
		}
	}
	return out
}

type stagedWrite struct {
	listing *models.Listing
	history *models.PriceHistory
	insert  bool
}

type memTx struct {
	store  *memStore
	staged []stagedWrite
	closed bool
}

func key(source, externalID string) string { return source + "|" + externalID }

func (t *memTx) GetByNaturalKey(ctx context.Context, source, externalID string) (*models.Listing, error) {
	if t.store.failOp == "get" {
		return nil, t.store.failErr
	}
	l, ok := t.store.listings[key(source, externalID)]
	if !ok {
		return nil, models.ErrListingNotFound
	}
	return cloneListing(l), nil
}

func (t *memTx) Insert(ctx context.Context, l *models.Listing) error {
	if t.store.failOp == "insert" {
		return t.store.failErr
	}
	if _, exists := t.store.listings[key(l.Source, l.ExternalID)]; exists {
		return models.ErrDuplicateKey
	}
	t.staged = append(t.staged, stagedWrite{listing: cloneListing(l), insert: true})
	return nil
}

func (t *memTx) Update(ctx context.Context, l *models.Listing) error {
	if t.store.failOp == "update" {
		return t.store.failErr
	}
	t.staged = append(t.staged, stagedWrite{listing: cloneListing(l)})
	return nil
}

func (t *memTx) InsertPriceHistory(ctx context.Context, ph *models.PriceHistory) error {
	if t.store.failOp == "history" {
		return t.store.failErr
	}
	cp := *ph
	t.staged = append(t.staged, stagedWrite{history: &cp})
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.store.failOp == "commit" {
		return t.store.failErr
	}
	for _, w := range t.staged {
		switch {
		case w.history != nil:
			t.store.history = append(t.store.history, *w.history)
		case w.listing != nil:
			t.store.listings[key(w.listing.Source, w.listing.ExternalID)] = w.listing
		}
	}
	t.closed = true
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if !t.closed {
		t.staged = nil
		t.closed = true
	}
	return nil
}

func cloneListing(l *models.Listing) *models.Listing {
	c := *l
	c.AdminFee = clonePtr(l.AdminFee)
	c.Description = clonePtr(l.Description)
	c.Estrato = clonePtr(l.Estrato)
	c.Floor = clonePtr(l.Floor)
	c.TotalFloors = clonePtr(l.TotalFloors)
	c.BuildingAge = clonePtr(l.BuildingAge)
	c.PropertyCondition = clonePtr(l.PropertyCondition)
	c.Images = append([]string(nil), l.Images...)
	c.Amenities = append([]string(nil), l.Amenities...)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// sliceSource feeds records (or per-record errors) to Runner.Run.
type sliceSource struct {
	items []sourceItem
	pos   int
}

type sourceItem struct {
	rec *models.RawRecord
	err error
}

func (s *sliceSource) Next() (*models.RawRecord, error) {
	if s.pos >= len(s.items) {
		return nil, io.EOF
	}
	item := s.items[s.pos]
	s.pos++
	return item.rec, item.err
}

var errStore = errors.New("store unavailable")
