package search

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realty-marketplace/internal/apperr"
	"realty-marketplace/internal/models"
	"realty-marketplace/internal/repository"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// addProperty stores a property at the given latitude offset north of the
// equator; 0.01 degrees of latitude is roughly 1.11 km.
func addProperty(t *testing.T, store *repository.MemoryStore, id string, latOffset float64, mutate func(*models.Property)) {
	t.Helper()
	p := models.Property{
		ID:        id,
		Title:     "Listing " + id,
		Price:     200000,
		City:      "Lisbon",
		OwnerID:   "agent-1",
		Latitude:  floatPtr(latOffset),
		Longitude: floatPtr(0),
		CreatedAt: time.Now(),
	}
	if mutate != nil {
		mutate(&p)
	}
	require.NoError(t, store.Create(&p))
}

func newSearchFixture() (*repository.MemoryStore, *Service) {
	store := repository.NewMemoryStore()
	return store, NewService(store)
}

func spatialParams(radiusKm float64) Params {
	return Params{
		CenterLat: floatPtr(0),
		CenterLng: floatPtr(0),
		RadiusKm:  floatPtr(radiusKm),
	}
}

func TestSearchOrdersByDistance(t *testing.T) {
	store, svc := newSearchFixture()
	// ~1 km, ~5 km, ~3 km from the center.
	addProperty(t, store, "near", 0.009, nil)
	addProperty(t, store, "far", 0.045, nil)
	addProperty(t, store, "mid", 0.027, nil)

	result, err := svc.Search(spatialParams(10))
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "near", result.Items[0].ID)
	assert.Equal(t, "mid", result.Items[1].ID)
	assert.Equal(t, "far", result.Items[2].ID)
	assert.Equal(t, int64(3), result.Total)

	// Distances are annotated and ascending.
	require.NotNil(t, result.Items[0].DistanceKm)
	assert.Less(t, *result.Items[0].DistanceKm, *result.Items[1].DistanceKm)
	assert.Less(t, *result.Items[1].DistanceKm, *result.Items[2].DistanceKm)
}

func TestSearchExcludesBeyondRadius(t *testing.T) {
	store, svc := newSearchFixture()
	addProperty(t, store, "near", 0.009, nil)
	addProperty(t, store, "beyond", 0.2, nil) // ~22 km

	result, err := svc.Search(spatialParams(10))
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "near", result.Items[0].ID)
	assert.Equal(t, int64(1), result.Total)
}

func TestSearchExcludesPropertiesWithoutLocation(t *testing.T) {
	store, svc := newSearchFixture()
	addProperty(t, store, "located", 0.009, nil)
	addProperty(t, store, "unlocated", 0, func(p *models.Property) {
		p.Latitude = nil
		p.Longitude = nil
		// Matches the attribute filters better than anything else; it must
		// still never appear in a spatial result.
		p.Price = 100
	})

	params := spatialParams(100)
	result, err := svc.Search(params)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "located", result.Items[0].ID)
}

func TestSearchPagination(t *testing.T) {
	store, svc := newSearchFixture()
	for i := 0; i < 5; i++ {
		addProperty(t, store, fmt.Sprintf("p%d", i), 0.009*float64(i+1), nil)
	}

	params := spatialParams(100)
	params.Limit = 2
	result, err := svc.Search(params)
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, int64(5), result.Total)

	params.Offset = 4
	result, err = svc.Search(params)
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, int64(5), result.Total)

	// Offset past the end: empty page, unchanged total.
	params.Offset = 10
	result, err = svc.Search(params)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, int64(5), result.Total)
}

func TestSearchDefaultPageSize(t *testing.T) {
	store, svc := newSearchFixture()
	for i := 0; i < 12; i++ {
		addProperty(t, store, fmt.Sprintf("p%d", i), 0.001*float64(i+1), nil)
	}

	result, err := svc.Search(spatialParams(100))
	require.NoError(t, err)
	assert.Len(t, result.Items, DefaultPageSize)
	assert.Equal(t, int64(12), result.Total)
}

func TestSearchFilterConjunction(t *testing.T) {
	store, svc := newSearchFixture()
	addProperty(t, store, "cheap-villa", 0.001, func(p *models.Property) {
		p.Price = 90000
		p.PropertyType = "villa"
	})
	addProperty(t, store, "pricey-villa", 0.002, func(p *models.Property) {
		p.Price = 300000
		p.PropertyType = "villa"
	})
	addProperty(t, store, "pricey-flat", 0.003, func(p *models.Property) {
		p.Price = 300000
		p.PropertyType = "apartment"
	})

	params := spatialParams(100)
	params.Filters = repository.PropertyFilters{
		MinPrice:     floatPtr(100000),
		PropertyType: "villa",
	}
	result, err := svc.Search(params)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "pricey-villa", result.Items[0].ID)
}

func TestSearchFreeTextIsORAcrossFieldsAndANDWithFilters(t *testing.T) {
	store, svc := newSearchFixture()
	addProperty(t, store, "by-title", 0.001, func(p *models.Property) {
		p.Title = "Riverside penthouse"
		p.Price = 500000
	})
	addProperty(t, store, "by-city", 0.002, func(p *models.Property) {
		p.Title = "Plain flat"
		p.City = "Riverside"
		p.Price = 500000
	})
	addProperty(t, store, "by-title-cheap", 0.003, func(p *models.Property) {
		p.Title = "Riverside studio"
		p.Price = 80000
	})

	params := spatialParams(100)
	params.Filters = repository.PropertyFilters{
		Query:    "riverside",
		MinPrice: floatPtr(100000),
	}
	result, err := svc.Search(params)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	// Title match and city match both count; the price filter still binds.
	assert.Equal(t, "by-title", result.Items[0].ID)
	assert.Equal(t, "by-city", result.Items[1].ID)
}

func TestSearchFeatureFiltersRequireAll(t *testing.T) {
	store, svc := newSearchFixture()
	addProperty(t, store, "full", 0.001, func(p *models.Property) {
		p.SetFeatureList([]string{"garden", "garage", "pool"})
	})
	addProperty(t, store, "partial", 0.002, func(p *models.Property) {
		p.SetFeatureList([]string{"garden"})
	})

	params := spatialParams(100)
	params.Filters = repository.PropertyFilters{Features: []string{"garden", "pool"}}
	result, err := svc.Search(params)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "full", result.Items[0].ID)
}

func TestSearchWithoutCenterOrdersByRecency(t *testing.T) {
	store, svc := newSearchFixture()
	base := time.Now()
	addProperty(t, store, "old", 0.001, func(p *models.Property) {
		p.CreatedAt = base.Add(-2 * time.Hour)
	})
	addProperty(t, store, "new", 0.002, func(p *models.Property) {
		p.CreatedAt = base
	})
	addProperty(t, store, "middle", 0.003, func(p *models.Property) {
		p.CreatedAt = base.Add(-1 * time.Hour)
	})

	result, err := svc.Search(Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "new", result.Items[0].ID)
	assert.Equal(t, "middle", result.Items[1].ID)
	assert.Equal(t, "old", result.Items[2].ID)
	for _, item := range result.Items {
		assert.Nil(t, item.DistanceKm)
	}
}

func TestSearchValidation(t *testing.T) {
	_, svc := newSearchFixture()

	_, err := svc.Search(Params{CenterLat: floatPtr(0), RadiusKm: floatPtr(5)})
	assert.True(t, apperr.IsValidation(err), "latitude without longitude")

	_, err = svc.Search(Params{RadiusKm: floatPtr(5)})
	assert.True(t, apperr.IsValidation(err), "radius without center")

	_, err = svc.Search(Params{CenterLat: floatPtr(0), CenterLng: floatPtr(0)})
	assert.True(t, apperr.IsValidation(err), "center without radius")

	_, err = svc.Search(Params{CenterLat: floatPtr(0), CenterLng: floatPtr(0), RadiusKm: floatPtr(0)})
	assert.True(t, apperr.IsValidation(err), "zero radius")

	_, err = svc.Search(Params{CenterLat: floatPtr(95), CenterLng: floatPtr(0), RadiusKm: floatPtr(5)})
	assert.True(t, apperr.IsValidation(err), "latitude out of range")
}

func TestSearchMinBedroomsExcludesUnknown(t *testing.T) {
	store, svc := newSearchFixture()
	addProperty(t, store, "three-bed", 0.001, func(p *models.Property) {
		p.Bedrooms = intPtr(3)
	})
	addProperty(t, store, "unknown-beds", 0.002, nil)

	params := spatialParams(100)
	params.Filters = repository.PropertyFilters{MinBedrooms: intPtr(2)}
	result, err := svc.Search(params)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "three-bed", result.Items[0].ID)
}
