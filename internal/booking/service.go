// Package booking implements tour scheduling: the availability check over a
// property's active tours and the booking protocol built on top of it.
package booking

import (
	"errors"
	"fmt"
	"time"

	"realty-marketplace/internal/apperr"
	"realty-marketplace/internal/models"
	"realty-marketplace/internal/repository"
)

type Service struct {
	properties repository.PropertyRepository
	tours      repository.TourRepository
	users      repository.UserRepository
}

func NewService(properties repository.PropertyRepository, tours repository.TourRepository, users repository.UserRepository) *Service {
	return &Service{
		properties: properties,
		tours:      tours,
		users:      users,
	}
}

// CreateTourRequest carries the validated parameters of a booking request.
type CreateTourRequest struct {
	PropertyID    string
	UserID        string
	AgentID       string
	ScheduledDate time.Time
	EndTime       time.Time
	Notes         string
}

// CheckAvailability reports whether the interval [start, end) is free of
// active tours for the property. Pure read; nothing is inserted.
func (s *Service) CheckAvailability(propertyID string, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, apperr.Validation("end_time", "must be after the start time")
	}
	if _, err := s.properties.GetByID(propertyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, apperr.NotFound("property not found")
		}
		return false, fmt.Errorf("lookup property: %w", err)
	}

	active, err := s.tours.ActiveForProperty(propertyID)
	if err != nil {
		return false, fmt.Errorf("load active tours: %w", err)
	}
	for _, tour := range active {
		if Overlaps(start, end, tour.ScheduledDate, tour.EndTime) {
			return false, nil
		}
	}
	return true, nil
}

// CreateTour runs the booking protocol: validate the property and the
// agent, check availability, insert a pending tour. The availability check
// here gives the friendly Conflict message; the repository's own guard
// (exclusion constraint, or locking transaction) stays authoritative under
// concurrent requests, so a racing insert is still rejected.
func (s *Service) CreateTour(req CreateTourRequest) (*models.PropertyTour, error) {
	if !req.EndTime.After(req.ScheduledDate) {
		return nil, apperr.Validation("end_time", "must be after scheduled_date")
	}

	if _, err := s.properties.GetByID(req.PropertyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("property not found")
		}
		return nil, fmt.Errorf("lookup property: %w", err)
	}

	if _, err := s.users.GetByID(req.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	agent, err := s.users.GetByID(req.AgentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("agent not found")
		}
		return nil, fmt.Errorf("lookup agent: %w", err)
	}
	if !agent.IsAgent() {
		return nil, apperr.Validation("agent_id", "referenced user is not an agent")
	}

	available, err := s.CheckAvailability(req.PropertyID, req.ScheduledDate, req.EndTime)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, apperr.Conflict("this time slot is already booked")
	}

	tour := &models.PropertyTour{
		ID:            models.NewID(),
		PropertyID:    req.PropertyID,
		UserID:        req.UserID,
		AgentID:       req.AgentID,
		ScheduledDate: req.ScheduledDate,
		EndTime:       req.EndTime,
		Status:        models.TourStatusPending,
		Notes:         req.Notes,
	}
	if err := s.tours.Create(tour); err != nil {
		if errors.Is(err, repository.ErrTourOverlap) {
			// Lost the race to a concurrent booking.
			return nil, apperr.Conflict("this time slot is already booked")
		}
		return nil, fmt.Errorf("create tour: %w", err)
	}
	return tour, nil
}

// UpdateTourStatus moves a tour to the target status when the transition is
// legal and the acting user is the assigned agent or an admin. Cancellation
// by the requesting user goes through CancelTour instead.
func (s *Service) UpdateTourStatus(tourID string, target models.TourStatus, actingUserID string) (*models.PropertyTour, error) {
	if !models.IsValidTourStatus(target) || target == models.TourStatusPending {
		return nil, apperr.Validation("status", "must be one of confirmed, completed, canceled")
	}

	tour, err := s.getTour(tourID)
	if err != nil {
		return nil, err
	}

	acting, err := s.getActingUser(actingUserID)
	if err != nil {
		return nil, err
	}
	if !canManageTour(acting, tour) {
		return nil, apperr.Authorization("only the assigned agent or an admin may update this tour")
	}

	return s.transition(tour, target)
}

// CancelTour cancels a tour. Unlike the other transitions this one is also
// open to the requesting user on their own tour.
func (s *Service) CancelTour(tourID, actingUserID string) (*models.PropertyTour, error) {
	tour, err := s.getTour(tourID)
	if err != nil {
		return nil, err
	}

	acting, err := s.getActingUser(actingUserID)
	if err != nil {
		return nil, err
	}
	if !canManageTour(acting, tour) && acting.ID != tour.UserID {
		return nil, apperr.Authorization("you do not have rights over this tour")
	}

	return s.transition(tour, models.TourStatusCanceled)
}

func (s *Service) transition(tour *models.PropertyTour, target models.TourStatus) (*models.PropertyTour, error) {
	if !models.CanTransition(tour.Status, target) {
		return nil, apperr.InvalidTransition(
			fmt.Sprintf("cannot move tour from %s to %s", tour.Status, target))
	}
	tour.Status = target
	tour.UpdatedAt = time.Now()
	if err := s.tours.Save(tour); err != nil {
		return nil, fmt.Errorf("save tour: %w", err)
	}
	return tour, nil
}

func (s *Service) getTour(tourID string) (*models.PropertyTour, error) {
	tour, err := s.tours.GetByID(tourID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("tour not found")
		}
		return nil, fmt.Errorf("lookup tour: %w", err)
	}
	return tour, nil
}

func (s *Service) getActingUser(userID string) (*models.User, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("acting user not found")
		}
		return nil, fmt.Errorf("lookup acting user: %w", err)
	}
	return user, nil
}

func canManageTour(user *models.User, tour *models.PropertyTour) bool {
	return user.IsAdmin() || user.ID == tour.AgentID
}
