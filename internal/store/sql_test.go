package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AnshRaj112/reflections-backend/internal/database"
	"github.com/AnshRaj112/reflections-backend/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func migratedStore(t *testing.T) *SQLStore {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, database.MigrateSQLite(context.Background(), db, zap.NewNop()))
	return NewSQLStore(db, DialectSQLite)
}

func strPtr(s string) *string { return &s }

func seedAt(t *testing.T, s *SQLStore, neighborhood string, featured bool, at time.Time) models.Reflection {
	t.Helper()
	r := models.Reflection{
		Email:        "seed@example.com",
		Neighborhood: neighborhood,
		Reflection:   "walked at " + at.Format(time.Kitchen),
		Featured:     featured,
		CreatedAt:    at,
	}
	require.NoError(t, s.Insert(context.Background(), &r))
	return r
}

func TestSQLStore_InsertAssignsIDAndTimestamp(t *testing.T) {
	s := migratedStore(t)
	fixed := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	r := models.Reflection{Email: "a@b.com", Neighborhood: "King West", Reflection: "Hello"}
	require.NoError(t, s.Insert(context.Background(), &r))

	assert.NotEmpty(t, r.ID)
	assert.True(t, r.CreatedAt.Equal(fixed))

	got, err := s.List(context.Background(), models.ReflectionFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r.ID, got[0].ID)
	assert.Equal(t, "a@b.com", got[0].Email)
	assert.Nil(t, got[0].PhotoURL)
	assert.Nil(t, got[0].Title)
	assert.False(t, got[0].Featured)
	assert.True(t, got[0].CreatedAt.Equal(fixed))
}

func TestSQLStore_InsertKeepsOptionalColumns(t *testing.T) {
	s := migratedStore(t)

	r := models.Reflection{
		Email:        "a@b.com",
		Neighborhood: "Annex",
		Reflection:   "Hello",
		Title:        strPtr("Social Lessons"),
		PhotoURL:     strPtr("https://cdn.example.com/reflections/1.jpg"),
	}
	require.NoError(t, s.Insert(context.Background(), &r))

	got, err := s.List(context.Background(), models.ReflectionFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Title)
	assert.Equal(t, "Social Lessons", *got[0].Title)
	require.NotNil(t, got[0].PhotoURL)
	assert.Equal(t, "https://cdn.example.com/reflections/1.jpg", *got[0].PhotoURL)
}

func TestSQLStore_ListNewestFirst(t *testing.T) {
	s := migratedStore(t)
	base := time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose.
	for _, offset := range []int{3, 0, 4, 1, 2} {
		seedAt(t, s, "High Park", false, base.Add(time.Duration(offset)*time.Hour))
	}

	got, err := s.List(context.Background(), models.ReflectionFilter{})
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].CreatedAt.After(got[i].CreatedAt), "row %d not newer than row %d", i-1, i)
	}
}

func TestSQLStore_ListNeighborhoodExactMatch(t *testing.T) {
	s := migratedStore(t)
	base := time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)

	seedAt(t, s, "King West", false, base)
	seedAt(t, s, "king west", false, base.Add(time.Minute))
	seedAt(t, s, "King West ", false, base.Add(2*time.Minute))
	seedAt(t, s, "King West", true, base.Add(3*time.Minute))
	seedAt(t, s, "Leslieville", false, base.Add(4*time.Minute))

	got, err := s.List(context.Background(), models.ReflectionFilter{Neighborhood: "King West"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "King West", r.Neighborhood)
	}
	assert.True(t, got[0].CreatedAt.After(got[1].CreatedAt))
}

func TestSQLStore_ListFeaturedOnly(t *testing.T) {
	s := migratedStore(t)
	base := time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)

	seedAt(t, s, "Annex", true, base)
	seedAt(t, s, "Annex", false, base.Add(time.Minute))
	seedAt(t, s, "Beaches", true, base.Add(2*time.Minute))

	got, err := s.List(context.Background(), models.ReflectionFilter{FeaturedOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Beaches", got[0].Neighborhood)

	got, err = s.List(context.Background(), models.ReflectionFilter{FeaturedOnly: true, Neighborhood: "Annex"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Featured)
}

func TestSQLStore_ListEmptyIsNotNil(t *testing.T) {
	s := migratedStore(t)

	got, err := s.List(context.Background(), models.ReflectionFilter{Neighborhood: "Nowhere"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSQLStore_MissingFeaturedColumn(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, database.CreateSQLiteBase(context.Background(), db))
	s := NewSQLStore(db, DialectSQLite)

	_, err := db.Exec(`INSERT INTO reflections (id, created_at, email, neighborhood, reflection)
		VALUES ('legacy-1', '2024-06-01 10:00:00', 'old@example.com', 'Annex', 'From before the migration')`)
	require.NoError(t, err)

	_, err = s.List(context.Background(), models.ReflectionFilter{FeaturedOnly: true})
	require.Error(t, err)
	assert.True(t, IsMissingColumn(err, "featured"), "got %v", err)

	// Unfiltered listings still work against the legacy shape.
	got, err := s.List(context.Background(), models.ReflectionFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "legacy-1", got[0].ID)
	assert.False(t, got[0].Featured)
	assert.Nil(t, got[0].Title)

	// Inserts name the curation columns explicitly and must fail loudly.
	r := models.Reflection{Email: "a@b.com", Neighborhood: "Annex", Reflection: "Hello"}
	err = s.Insert(context.Background(), &r)
	require.Error(t, err)
	assert.Empty(t, r.ID)
}

func TestSQLStore_MigrationUpgradesLegacyTable(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	require.NoError(t, database.CreateSQLiteBase(ctx, db))
	require.NoError(t, database.MigrateSQLite(ctx, db, zap.NewNop()))
	// Second run is a no-op.
	require.NoError(t, database.MigrateSQLite(ctx, db, zap.NewNop()))

	s := NewSQLStore(db, DialectSQLite)
	r := models.Reflection{Email: "a@b.com", Neighborhood: "Annex", Reflection: "Hello"}
	require.NoError(t, s.Insert(ctx, &r))

	got, err := s.List(ctx, models.ReflectionFilter{FeaturedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLStore_Count(t *testing.T) {
	s := migratedStore(t)
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	seedAt(t, s, "Annex", false, time.Now())
	n, err = s.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSQLStore_PlaceholderDialects(t *testing.T) {
	pg := NewSQLStore(nil, DialectPostgres)
	lite := NewSQLStore(nil, DialectSQLite)
	assert.Equal(t, "$3", pg.placeholder(3))
	assert.Equal(t, "?", lite.placeholder(3))
}
