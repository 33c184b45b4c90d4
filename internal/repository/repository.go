// Package repository defines the persistence interfaces the booking and
// search services depend on. Concrete implementations live in
// internal/database; an in-memory implementation backs the tests.
package repository

import (
	"errors"
	"time"

	"realty-marketplace/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrTourOverlap is returned by TourRepository.Create when the insert is
// rejected because an active tour already occupies the interval. This is the
// authoritative guard against the check-then-insert race; the service-level
// availability check exists for the friendlier error message.
var ErrTourOverlap = errors.New("tour overlaps an existing active tour")

// PropertyFilters is the structured attribute-filter record. Every field is
// independently optional; zero/nil values mean "not filtered". All provided
// conditions combine as a conjunction, except Query which matches
// title/description/address/city case-insensitively OR-combined (and is then
// AND-combined with everything else). Features use all-must-match semantics.
type PropertyFilters struct {
	Query         string
	City          string
	MinPrice      *float64
	MaxPrice      *float64
	MinBedrooms   *int
	MinBathrooms  *int
	PropertyType  string
	ListingType   string
	MinSquareFeet *int
	MaxSquareFeet *int
	Features      []string
}

type PropertyRepository interface {
	GetByID(id string) (*models.Property, error)
	Create(p *models.Property) error
	Save(p *models.Property) error
	Delete(id string) error

	// List returns every property matching the filters, unordered and
	// unpaginated. Proximity search restricts, sorts and pages the result
	// in the service because distance is not a stored column.
	List(f PropertyFilters) ([]models.Property, error)

	// ListPage returns one page of matching properties ordered
	// most-recently-created first, plus the total match count.
	ListPage(f PropertyFilters, limit, offset int) ([]models.Property, int64, error)
}

type TourRepository interface {
	GetByID(id string) (*models.PropertyTour, error)

	// ActiveForProperty returns the property's tours in pending or
	// confirmed status.
	ActiveForProperty(propertyID string) ([]models.PropertyTour, error)

	// Create inserts the tour, returning ErrTourOverlap when an active
	// tour already occupies an overlapping interval for the property.
	Create(t *models.PropertyTour) error

	Save(t *models.PropertyTour) error

	// CompleteElapsed moves confirmed tours whose end time has passed to
	// completed; ExpireElapsedPending cancels pending tours whose end time
	// has passed. Both return the number of affected tours.
	CompleteElapsed(now time.Time) (int64, error)
	ExpireElapsedPending(now time.Time) (int64, error)
}

type UserRepository interface {
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(u *models.User) error
}
