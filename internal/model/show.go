package model

import (
	"regexp"
	"time"
)

type ShowStatus string

const (
	ShowScheduled ShowStatus = "scheduled"
	ShowConfirmed ShowStatus = "confirmed"
	ShowCancelled ShowStatus = "cancelled"
	ShowCompleted ShowStatus = "completed"
)

func (s ShowStatus) Valid() bool {
	switch s {
	case ShowScheduled, ShowConfirmed, ShowCancelled, ShowCompleted:
		return true
	}
	return false
}

// Timeline is the day-of-show schedule. Each field is an HH:MM clock time
// or empty.
type Timeline struct {
	LoadIn     string `json:"load_in"`
	Soundcheck string `json:"soundcheck"`
	Doors      string `json:"doors"`
	ShowTime   string `json:"show_time"`
	Curfew     string `json:"curfew"`
}

var clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidClock reports whether s is empty or a 24h HH:MM time.
func ValidClock(s string) bool { return s == "" || clockRe.MatchString(s) }

// Valid reports whether every timeline field is a valid clock time.
func (tl Timeline) Valid() bool {
	for _, v := range []string{tl.LoadIn, tl.Soundcheck, tl.Doors, tl.ShowTime, tl.Curfew} {
		if !ValidClock(v) {
			return false
		}
	}
	return true
}

type VenueContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Show is a single scheduled performance at a venue.
type Show struct {
	ID         string       `json:"id"`
	TourID     string       `json:"tour_id"`
	Venue      string       `json:"venue"`
	City       string       `json:"city"`
	State      string       `json:"state"`
	Country    string       `json:"country"`
	Date       string       `json:"date"`
	Timeline   Timeline     `json:"timeline"`
	Contact    VenueContact `json:"contact"`
	Capacity   int          `json:"capacity"`
	Status     ShowStatus   `json:"status"`
	Notes      string       `json:"notes"`
	Settlement *Settlement  `json:"settlement,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Settlement is the end-of-night money reconciliation for a show. Amounts are
// in cents; Percentage is the artist share of the net (0-100).
type Settlement struct {
	ShowID         string    `json:"show_id"`
	GuaranteeCents int64     `json:"guarantee_cents"`
	GrossCents     int64     `json:"gross_cents"`
	ExpensesCents  int64     `json:"expenses_cents"`
	Percentage     float64   `json:"percentage"`
	MerchCents     int64     `json:"merch_cents"`
	Notes          string    `json:"notes"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NetCents is gross minus expenses.
func (s Settlement) NetCents() int64 { return s.GrossCents - s.ExpensesCents }

// PayoutCents applies a versus deal: the greater of the guarantee and the
// percentage of the net. The result is never negative.
func (s Settlement) PayoutCents() int64 {
	share := int64(float64(s.NetCents()) * s.Percentage / 100)
	payout := s.GuaranteeCents
	if share > payout {
		payout = share
	}
	if payout < 0 {
		return 0
	}
	return payout
}

func (s Settlement) Valid() bool {
	return s.Percentage >= 0 && s.Percentage <= 100 &&
		s.GuaranteeCents >= 0 && s.GrossCents >= 0 && s.ExpensesCents >= 0 && s.MerchCents >= 0
}
