package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to TourStatus }{
		{TourStatusPending, TourStatusConfirmed},
		{TourStatusPending, TourStatusCanceled},
		{TourStatusConfirmed, TourStatusCompleted},
		{TourStatusConfirmed, TourStatusCanceled},
	}
	for _, tr := range allowed {
		assert.Truef(t, CanTransition(tr.from, tr.to), "%s -> %s should be legal", tr.from, tr.to)
	}

	statuses := []TourStatus{TourStatusPending, TourStatusConfirmed, TourStatusCompleted, TourStatusCanceled}
	isAllowed := func(from, to TourStatus) bool {
		for _, tr := range allowed {
			if tr.from == from && tr.to == to {
				return true
			}
		}
		return false
	}
	for _, from := range statuses {
		for _, to := range statuses {
			if !isAllowed(from, to) {
				assert.Falsef(t, CanTransition(from, to), "%s -> %s should be rejected", from, to)
			}
		}
	}
}

func TestIsActive(t *testing.T) {
	assert.True(t, (&PropertyTour{Status: TourStatusPending}).IsActive())
	assert.True(t, (&PropertyTour{Status: TourStatusConfirmed}).IsActive())
	assert.False(t, (&PropertyTour{Status: TourStatusCompleted}).IsActive())
	assert.False(t, (&PropertyTour{Status: TourStatusCanceled}).IsActive())
}

func TestFeatureList(t *testing.T) {
	var p Property
	assert.Nil(t, p.FeatureList())

	p.SetFeatureList([]string{"garden", "garage"})
	assert.Equal(t, []string{"garden", "garage"}, p.FeatureList())
	assert.True(t, p.HasFeature("Garden"))
	assert.False(t, p.HasFeature("pool"))

	p.Features = "garden, garage , "
	assert.Equal(t, []string{"garden", "garage"}, p.FeatureList())
}

func TestHasLocation(t *testing.T) {
	lat, lng := 38.7223, -9.1393
	assert.True(t, (&Property{Latitude: &lat, Longitude: &lng}).HasLocation())
	assert.False(t, (&Property{Latitude: &lat}).HasLocation())
	assert.False(t, (&Property{}).HasLocation())
}
