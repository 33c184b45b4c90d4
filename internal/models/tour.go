package models

import "time"

// PropertyTour は内見予約
type PropertyTour struct {
	ID            string     `gorm:"type:varchar(32);primaryKey" json:"id"`
	PropertyID    string     `gorm:"type:varchar(32);not null;index" json:"property_id"`
	UserID        string     `gorm:"type:varchar(32);not null;index" json:"user_id"`
	AgentID       string     `gorm:"type:varchar(32);not null;index" json:"agent_id"`
	ScheduledDate time.Time  `gorm:"type:datetime;not null;index" json:"scheduled_date"`
	EndTime       time.Time  `gorm:"type:datetime;not null" json:"end_time"`
	Status        TourStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Notes         string     `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"type:datetime;not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:datetime;not null;autoUpdateTime" json:"updated_at"`
}

// TourStatus はツアーのステータス
type TourStatus string

const (
	TourStatusPending   TourStatus = "pending"
	TourStatusConfirmed TourStatus = "confirmed"
	TourStatusCompleted TourStatus = "completed"
	TourStatusCanceled  TourStatus = "canceled"
)

// tourTransitions is the legal status transition table. Completed and
// canceled are terminal.
var tourTransitions = map[TourStatus][]TourStatus{
	TourStatusPending:   {TourStatusConfirmed, TourStatusCanceled},
	TourStatusConfirmed: {TourStatusCompleted, TourStatusCanceled},
}

// TableName はテーブル名を明示的に指定
func (PropertyTour) TableName() string {
	return "property_tours"
}

// IsActive reports whether the tour counts toward conflict detection.
// Completed and canceled tours never block a new booking.
func (t *PropertyTour) IsActive() bool {
	return t.Status == TourStatusPending || t.Status == TourStatusConfirmed
}

// IsValidTourStatus reports whether s is one of the known statuses.
func IsValidTourStatus(s TourStatus) bool {
	switch s {
	case TourStatusPending, TourStatusConfirmed, TourStatusCompleted, TourStatusCanceled:
		return true
	}
	return false
}

// CanTransition reports whether a tour may move from one status to another.
func CanTransition(from, to TourStatus) bool {
	for _, next := range tourTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ActiveTourStatuses returns the statuses that block overlapping bookings.
func ActiveTourStatuses() []TourStatus {
	return []TourStatus{TourStatusPending, TourStatusConfirmed}
}
