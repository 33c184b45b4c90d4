package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-marketplace/internal/models"
)

func tourAt(id string, status models.TourStatus, start, end time.Time) *models.PropertyTour {
	return &models.PropertyTour{
		ID: id, PropertyID: "prop-1", UserID: "user-1", AgentID: "agent-1",
		ScheduledDate: start, EndTime: end, Status: status,
	}
}

func TestMemoryStoreTourOverlapGuard(t *testing.T) {
	store := NewMemoryStore()
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.CreateTour(tourAt("a", models.TourStatusPending, start, start.Add(time.Hour))))

	// Overlapping active tour is rejected at insert.
	err := store.CreateTour(tourAt("b", models.TourStatusPending, start.Add(30*time.Minute), start.Add(90*time.Minute)))
	assert.ErrorIs(t, err, ErrTourOverlap)

	// Abutting interval is allowed.
	require.NoError(t, store.CreateTour(tourAt("c", models.TourStatusPending, start.Add(time.Hour), start.Add(2*time.Hour))))

	// Overlap with a canceled tour is allowed.
	canceled := tourAt("a", models.TourStatusCanceled, start, start.Add(time.Hour))
	require.NoError(t, store.SaveTour(canceled))
	require.NoError(t, store.CreateTour(tourAt("d", models.TourStatusPending, start, start.Add(time.Hour))))
}

func TestMemoryStoreTourMaintenance(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.CreateTour(tourAt("past-confirmed", models.TourStatusConfirmed, now.Add(-2*time.Hour), now.Add(-time.Hour))))
	require.NoError(t, store.CreateTour(tourAt("past-pending", models.TourStatusPending, now.Add(-4*time.Hour), now.Add(-3*time.Hour))))
	require.NoError(t, store.CreateTour(tourAt("future", models.TourStatusConfirmed, now.Add(time.Hour), now.Add(2*time.Hour))))

	completed, err := store.CompleteElapsed(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), completed)

	expired, err := store.ExpireElapsedPending(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	tour, err := store.GetTourByID("past-confirmed")
	require.NoError(t, err)
	assert.Equal(t, models.TourStatusCompleted, tour.Status)

	tour, err = store.GetTourByID("past-pending")
	require.NoError(t, err)
	assert.Equal(t, models.TourStatusCanceled, tour.Status)

	tour, err = store.GetTourByID("future")
	require.NoError(t, err)
	assert.Equal(t, models.TourStatusConfirmed, tour.Status)
}

func TestMemoryStoreListPage(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		p := &models.Property{
			ID:        string(rune('a' + i)),
			Title:     "Listing",
			Price:     100000,
			OwnerID:   "agent-1",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.Create(p))
	}

	page, total, err := store.ListPage(PropertyFilters{}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	// Newest first.
	assert.Equal(t, "e", page[0].ID)
	assert.Equal(t, "d", page[1].ID)

	page, total, err = store.ListPage(PropertyFilters{}, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, page)
}

// Exact-match filters compare case-insensitively on every backend: the SQL
// builders use LOWER(...) = LOWER(?) and this store uses EqualFold.
func TestMemoryStoreExactFiltersIgnoreCase(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Create(&models.Property{
		ID: "p1", Title: "Loft", Price: 100000, OwnerID: "agent-1",
		City: "Lisbon", PropertyType: "Apartment", ListingType: "Sale",
	}))

	for _, f := range []PropertyFilters{
		{City: "lisbon"},
		{City: "LISBON"},
		{PropertyType: "apartment"},
		{ListingType: "sale"},
		{City: "lisbon", PropertyType: "APARTMENT", ListingType: "Sale"},
	} {
		matches, err := store.List(f)
		require.NoError(t, err)
		assert.Len(t, matches, 1, "filters %+v", f)
	}

	matches, err := store.List(PropertyFilters{City: "Porto"})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetTourByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetUserByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete("missing"), ErrNotFound)
	assert.ErrorIs(t, store.SaveTour(&models.PropertyTour{ID: "missing"}), ErrNotFound)
}
