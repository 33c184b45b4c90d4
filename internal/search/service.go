// Package search implements property search: the attribute-filter listing,
// the proximity search over a center point and radius, and the Meilisearch
// free-text index.
package search

import (
	"fmt"
	"sort"

	"realty-marketplace/internal/apperr"
	"realty-marketplace/internal/geo"
	"realty-marketplace/internal/models"
	"realty-marketplace/internal/repository"
)

// DefaultPageSize is the page size used when the caller does not supply one.
const DefaultPageSize = 9

// Params is a search request: the attribute filters, the optional spatial
// restriction, and pagination.
type Params struct {
	Filters   repository.PropertyFilters
	CenterLat *float64
	CenterLng *float64
	RadiusKm  *float64
	Limit     int
	Offset    int
}

// Item is a property in a search result, annotated with its distance from
// the center point when the search was spatial.
type Item struct {
	models.Property
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// Result is one page of matches plus the total size of the full matching
// set, so callers can compute pagination.
type Result struct {
	Items []Item `json:"items"`
	Total int64  `json:"total"`
}

type Service struct {
	properties repository.PropertyRepository
}

func NewService(properties repository.PropertyRepository) *Service {
	return &Service{properties: properties}
}

// Search runs the attribute filters and, when a center point is given, the
// radius restriction with nearest-first ordering. Without a center point the
// ordering is most-recently-created first.
func (s *Service) Search(p Params) (*Result, error) {
	if err := validateParams(p); err != nil {
		return nil, err
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}

	if p.CenterLat == nil {
		return s.searchByAttributes(p.Filters, limit, offset)
	}
	return s.searchByProximity(p.Filters, *p.CenterLat, *p.CenterLng, *p.RadiusKm, limit, offset)
}

func validateParams(p Params) error {
	hasLat, hasLng := p.CenterLat != nil, p.CenterLng != nil
	if hasLat != hasLng {
		return apperr.Validation("center", "latitude and longitude must be supplied together")
	}
	if p.RadiusKm != nil && !hasLat {
		return apperr.Validation("center", "a radius requires a center point")
	}
	if hasLat {
		if p.RadiusKm == nil {
			return apperr.Validation("radius_km", "required for a proximity search")
		}
		if *p.RadiusKm <= 0 {
			return apperr.Validation("radius_km", "must be greater than zero")
		}
		if !geo.ValidCoordinates(*p.CenterLat, *p.CenterLng) {
			return apperr.Validation("center", "coordinates out of range")
		}
	}
	return nil
}

func (s *Service) searchByAttributes(f repository.PropertyFilters, limit, offset int) (*Result, error) {
	properties, total, err := s.properties.ListPage(f, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	items := make([]Item, 0, len(properties))
	for _, p := range properties {
		items = append(items, Item{Property: p})
	}
	return &Result{Items: items, Total: total}, nil
}

// searchByProximity restricts the attribute-filtered set to properties
// within radiusKm of the center and orders it nearest-first. Distance is not
// a stored column, so restriction, ordering and pagination all happen here;
// the total reflects the restricted set before pagination. Properties
// without coordinates never match.
func (s *Service) searchByProximity(f repository.PropertyFilters, lat, lng, radiusKm float64, limit, offset int) (*Result, error) {
	properties, err := s.properties.List(f)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}

	var within []Item
	for _, p := range properties {
		if !p.HasLocation() {
			continue
		}
		d := geo.HaversineKm(lat, lng, *p.Latitude, *p.Longitude)
		if d > radiusKm {
			continue
		}
		dist := d
		within = append(within, Item{Property: p, DistanceKm: &dist})
	}

	sort.SliceStable(within, func(i, j int) bool {
		return *within[i].DistanceKm < *within[j].DistanceKm
	})

	total := int64(len(within))
	if offset >= len(within) {
		return &Result{Items: []Item{}, Total: total}, nil
	}
	end := offset + limit
	if end > len(within) {
		end = len(within)
	}
	return &Result{Items: within[offset:end], Total: total}, nil
}
