// Package model holds the Tour Flow domain records shared by the API,
// the workspace store and the text parsers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the format of every calendar date field (tour range, show date).
const DateLayout = "2006-01-02"

type TourStatus string

const (
	TourUpcoming  TourStatus = "upcoming"
	TourActive    TourStatus = "active"
	TourCompleted TourStatus = "completed"
)

func (s TourStatus) Valid() bool {
	switch s {
	case TourUpcoming, TourActive, TourCompleted:
		return true
	}
	return false
}

// Tour is a sequence of shows for one artist over a date range.
type Tour struct {
	ID        string     `json:"id"`
	OwnerID   uint64     `json:"owner_id,omitempty"`
	Name      string     `json:"name"`
	Artist    string     `json:"artist"`
	Status    TourStatus `json:"status"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	Shows     []Show     `json:"shows"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (t Tour) ShowCount() int { return len(t.Shows) }

// StatusOn derives the tour status for the given day from the date range.
// Tours without a start date keep their stored status.
func (t Tour) StatusOn(day time.Time) TourStatus {
	if t.StartDate == "" {
		return t.Status
	}
	end := t.EndDate
	if end == "" {
		end = t.StartDate
	}
	// YYYY-MM-DD compares correctly as a string.
	d := day.Format(DateLayout)
	switch {
	case d < t.StartDate:
		return TourUpcoming
	case d > end:
		return TourCompleted
	default:
		return TourActive
	}
}

// ValidDate reports whether s is empty or a YYYY-MM-DD date.
func ValidDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// NewID returns a fresh record id.
func NewID() string { return uuid.NewString() }
