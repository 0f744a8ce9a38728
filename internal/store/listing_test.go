package store_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lhgjose/propfair/internal/db"
	"github.com/lhgjose/propfair/internal/db/migrations"
	"github.com/lhgjose/propfair/internal/dbpool"
	"github.com/lhgjose/propfair/internal/models"
	"github.com/lhgjose/propfair/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	sharedEnv = &testEnv{pool: pool, log: log}

	return sharedEnv
}

// newStore returns a ListingStore over empty tables.
func newStore(t *testing.T) *store.ListingStore {
	t.Helper()

	env := getTestEnv(t)

	if _, err := env.pool.Exec(context.Background(), "TRUNCATE listings, price_history"); err != nil {
		t.Fatalf("truncating tables: %v", err)
	}

	return store.NewListingStore(store.Base{Pool: env.pool, Log: env.log})
}

func ptr[T any](v T) *T { return &v }

func testRecord(source, externalID string, price int64) *models.RawRecord {
	return &models.RawRecord{
		ExternalID:    ptr(externalID),
		Source:        ptr(source),
		URL:           ptr("https://example.com/" + externalID),
		Title:         ptr("Apartamento en Chapinero"),
		Price:         ptr(price),
		Bedrooms:      ptr(2),
		Bathrooms:     ptr(1),
		ParkingSpaces: ptr(1),
		Area:          ptr(60.0),
		Address:       ptr("Calle 100"),
		Neighborhood:  ptr("Usaquén"),
		City:          ptr("Bogotá"),
		Latitude:      ptr(4.6871),
		Longitude:     ptr(-74.0466),
		Images:        []string{"a.jpg"},
		Amenities:     []string{"gym"},
	}
}

// commitInsert persists a listing in its own transaction.
func commitInsert(t *testing.T, s *store.ListingStore, l *models.Listing) {
	t.Helper()

	ctx := context.Background()

	tx, err := s.BeginRecord(ctx)
	if err != nil {
		t.Fatalf("BeginRecord: %v", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := tx.Insert(ctx, l); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

func TestInsertAndGetByNaturalKey(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	l := models.NewListing("l1", testRecord("fincaraiz", "ext_1", 2000000), "hash-1", now)
	commitInsert(t, s, l)

	tx, err := s.BeginRecord(ctx)
	if err != nil {
		t.Fatalf("BeginRecord: %v", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	got, err := tx.GetByNaturalKey(ctx, "fincaraiz", "ext_1")
	if err != nil {
		t.Fatalf("GetByNaturalKey: %v", err)
	}

	if got.ID != "l1" || got.Price != 2000000 || got.Title != "Apartamento en Chapinero" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if len(got.Images) != 1 || got.Images[0] != "a.jpg" {
		t.Errorf("Images = %v", got.Images)
	}
	if len(got.Amenities) != 1 || got.Amenities[0] != "gym" {
		t.Errorf("Amenities = %v", got.Amenities)
	}
	if !got.FirstSeenAt.Equal(now) {
		t.Errorf("FirstSeenAt = %v, want %v", got.FirstSeenAt, now)
	}

	if _, err := tx.GetByNaturalKey(ctx, "fincaraiz", "missing"); !errors.Is(err, models.ErrListingNotFound) {
		t.Errorf("missing key err = %v, want ErrListingNotFound", err)
	}

	// Same external_id, different source: distinct natural key.
	if _, err := tx.GetByNaturalKey(ctx, "metrocuadrado", "ext_1"); !errors.Is(err, models.ErrListingNotFound) {
		t.Errorf("other source err = %v, want ErrListingNotFound", err)
	}
}

func TestInsert_DuplicateNaturalKey(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	commitInsert(t, s, models.NewListing("l1", testRecord("fincaraiz", "ext_1", 2000000), "h", now))

	tx, err := s.BeginRecord(ctx)
	if err != nil {
		t.Fatalf("BeginRecord: %v", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.Insert(ctx, models.NewListing("l2", testRecord("fincaraiz", "ext_1", 2100000), "h2", now))
	if !errors.Is(err, models.ErrDuplicateKey) {
		t.Errorf("err = %v, want ErrDuplicateKey", err)
	}
}

func TestUpdate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	l := models.NewListing("l1", testRecord("fincaraiz", "ext_1", 2000000), "h", created)
	commitInsert(t, s, l)

	now := time.Now().UTC().Truncate(time.Microsecond)
	l.Price = 2200000
	l.Title = "Título nuevo"
	l.LastSeenAt = now
	l.UpdatedAt = now

	tx, err := s.BeginRecord(ctx)
	if err != nil {
		t.Fatalf("BeginRecord: %v", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := tx.Update(ctx, l); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tx2, err := s.BeginRecord(ctx)
	if err != nil {
		t.Fatalf("BeginRecord: %v", err)
	}
	defer tx2.Rollback(ctx) //nolint:errcheck

	got, err := tx2.GetByNaturalKey(ctx, "fincaraiz", "ext_1")
	if err != nil {
		t.Fatalf("GetByNaturalKey: %v", err)
	}

	if got.Price != 2200000 || got.Title != "Título nuevo" {
		t.Errorf("update not persisted: %+v", got)
	}
	if !got.FirstSeenAt.Equal(created) || !got.CreatedAt.Equal(created) {
		t.Error("first_seen_at/created_at changed on update")
	}
	if !got.LastSeenAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Error("last_seen_at/updated_at not advanced")
	}
}

func TestUpdate_MissingListing(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tx, err := s.BeginRecord(ctx)
	if err != nil {
		t.Fatalf("BeginRecord: %v", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	ghost := models.NewListing("ghost", testRecord("fincaraiz", "ext_x", 1000000), "h", time.Now().UTC())
	if err := tx.Update(ctx, ghost); !errors.Is(err, models.ErrListingNotFound) {
		t.Errorf("err = %v, want ErrListingNotFound", err)
	}
}

func TestRollback_DiscardsWrites(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	tx, err := s.BeginRecord(ctx)
	if err != nil {
		t.Fatalf("BeginRecord: %v", err)
	}

	l := models.NewListing("l1", testRecord("fincaraiz", "ext_1", 2000000), "h", time.Now().UTC())
	if err := tx.Insert(ctx, l); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	tx2, err := s.BeginRecord(ctx)
	if err != nil {
		t.Fatalf("BeginRecord: %v", err)
	}
	defer tx2.Rollback(ctx) //nolint:errcheck

	if _, err := tx2.GetByNaturalKey(ctx, "fincaraiz", "ext_1"); !errors.Is(err, models.ErrListingNotFound) {
		t.Errorf("err = %v, want ErrListingNotFound after rollback", err)
	}
}

func TestPriceHistoryRoundtrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	l := models.NewListing("l1", testRecord("fincaraiz", "ext_1", 2000000), "h", now.Add(-time.Hour))
	commitInsert(t, s, l)

	tx, err := s.BeginRecord(ctx)
	if err != nil {
		t.Fatalf("BeginRecord: %v", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for i, ph := range []*models.PriceHistory{
		{ID: "ph1", ListingID: "l1", Price: 2100000, RecordedAt: now.Add(-30 * time.Minute)},
		{ID: "ph2", ListingID: "l1", Price: 2200000, AdminFee: ptr(int64(400000)), RecordedAt: now},
	} {
		if err := tx.InsertPriceHistory(ctx, ph); err != nil {
			t.Fatalf("InsertPriceHistory %d: %v", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	changes, hasMore, err := s.PriceHistoryByListing(ctx, "l1", 10, 0)
	if err != nil {
		t.Fatalf("PriceHistoryByListing: %v", err)
	}

	if hasMore {
		t.Error("hasMore = true, want false")
	}
	if len(changes) != 2 {
		t.Fatalf("changes = %d, want 2", len(changes))
	}
	// Newest first.
	if changes[0].ID != "ph2" || changes[1].ID != "ph1" {
		t.Errorf("order = [%s, %s], want [ph2, ph1]", changes[0].ID, changes[1].ID)
	}
	if changes[0].AdminFee == nil || *changes[0].AdminFee != 400000 {
		t.Errorf("AdminFee = %v, want 400000", changes[0].AdminFee)
	}
}

func TestListActive(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	commitInsert(t, s, models.NewListing("l1", testRecord("fincaraiz", "ext_1", 2000000), "h1", now))
	commitInsert(t, s, models.NewListing("l2", testRecord("fincaraiz", "ext_2", 1500000), "h2", now))

	env := getTestEnv(t)
	if _, err := env.pool.Exec(ctx, "UPDATE listings SET is_active = FALSE WHERE id = 'l2'"); err != nil {
		t.Fatalf("deactivating l2: %v", err)
	}

	listings, hasMore, err := s.ListActive(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}

	if hasMore {
		t.Error("hasMore = true, want false")
	}
	if len(listings) != 1 || listings[0].ID != "l1" {
		t.Errorf("listings = %+v, want only l1", listings)
	}

	byCity, _, err := s.ListActive(ctx, "Cali", 10, 0)
	if err != nil {
		t.Fatalf("ListActive by city: %v", err)
	}
	if len(byCity) != 0 {
		t.Errorf("byCity = %d, want 0", len(byCity))
	}
}
